package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ayusman/formcheck/internal/pose"
)

// Run processes frames from src until it is drained, ctx is done or fn
// returns an error. The source is closed on return.
func Run(ctx context.Context, src pose.Source, s *Session, opts Options, fn func(Result) error) (err error) {
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("next frame: %w", err)
		}
		if err := fn(s.Process(ctx, f, opts)); err != nil {
			return err
		}
	}
}
