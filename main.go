/*
Copyright © 2025 FAYAZ KHAN
*/
package main

import "github.com/fayazkhan121/OpenAi-fine-tuning/cmd"

func main() {
	cmd.Execute()
}
