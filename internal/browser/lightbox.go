package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// lightbox drives the modal image viewer once it is open.
type lightbox struct {
	session *Session
}

func (l *lightbox) CurrentImageURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opCtx, cancel := l.session.op(l.session.opts.NavTimeout)
	defer cancel()

	var src string
	var ok bool
	err := chromedp.Run(opCtx,
		chromedp.AttributeValue(l.session.lightboxImageSelector(), "src", &src, &ok, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("read lightbox image: %w", err)
	}
	if !ok || src == "" {
		return "", errors.New("lightbox image has no src")
	}
	return src, nil
}

// Next clicks the "next image" control and waits the settle delay. It returns
// false without error when the control is absent: a single-image gallery.
func (l *lightbox) Next(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	opCtx, cancel := l.session.op(l.session.opts.NavTimeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(opCtx,
		chromedp.Nodes(l.session.nextButtonSelector(), &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return false, fmt.Errorf("locate next-image control: %w", err)
	}
	if len(nodes) == 0 {
		return false, nil
	}

	err = chromedp.Run(opCtx,
		chromedp.MouseClickNode(nodes[0]),
		chromedp.Sleep(l.session.opts.GallerySettle),
	)
	if err != nil {
		return false, fmt.Errorf("advance gallery: %w", err)
	}
	return true, nil
}

func (l *lightbox) Close(ctx context.Context) error {
	return l.session.DismissOverlay(ctx)
}
