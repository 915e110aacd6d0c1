package navigator

import (
	"context"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/ysmood/gson"
)

// Session is the slice of browser control the navigator drives. Waits
// return an error once their timeout expires; Find fails immediately when
// nothing matches.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitClickable(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	Find(ctx context.Context, selector string) (Element, error)
	Eval(ctx context.Context, js string) (gson.JSON, error)
}

// Element is a handle to one DOM element. Each action gives up when ctx
// is done, including actions that would otherwise retry while the element
// is covered or disabled.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Input(ctx context.Context, text string) error
	Type(ctx context.Context, keys ...input.Key) error
}
