package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
)

var loaderOnce sync.Once

// TiktokenEncoder counts tokens with the BPE ranks embedded in
// tiktoken-go-loader, so it never downloads vocabulary files.
type TiktokenEncoder struct {
	encodings map[Scheme]*tiktoken.Tiktoken
}

// NewTiktokenEncoder loads all three encodings up front.
func NewTiktokenEncoder() (*TiktokenEncoder, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	e := &TiktokenEncoder{encodings: make(map[Scheme]*tiktoken.Tiktoken, len(schemes))}
	for _, s := range schemes {
		enc, err := tiktoken.GetEncoding(string(s))
		if err != nil {
			return nil, &apperr.ConfigurationError{
				Setting: "tokenizer " + string(s),
				Reason:  fmt.Sprintf("cannot load encoding: %v", err),
			}
		}
		e.encodings[s] = enc
	}
	return e, nil
}

// Count returns the number of tokens text encodes to under scheme. Unknown
// schemes count as zero.
func (e *TiktokenEncoder) Count(scheme Scheme, text string) int {
	if !scheme.valid() || text == "" {
		return 0
	}
	return len(e.encodings[scheme].Encode(text, nil, nil))
}
