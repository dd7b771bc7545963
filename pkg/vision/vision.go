// Package vision defines the image comparison model used to confirm
// duplicate patterns.
package vision

import (
	"context"
	"errors"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
)

// ErrModel is returned when the vision model cannot be reached or returns
// no usable text.
var ErrModel = errors.New("vision model error")

// Model sends a text prompt together with images and returns the model's
// raw text reply.
type Model interface {
	Compare(ctx context.Context, prompt string, images []*thumbnail.Image) (string, error)
}
