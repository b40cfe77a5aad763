package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// feedItem wraps one article node of the rendered feed.
type feedItem struct {
	session *Session
	node    *cdp.Node
}

func (f *feedItem) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opCtx, cancel := f.session.op(f.session.opts.NavTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		html, err = dom.GetOuterHTML().WithNodeID(f.node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("read item html: %w", err)
	}
	return html, nil
}

func (f *feedItem) ImageSources(ctx context.Context) ([]string, error) {
	nodes, err := f.imageNodes(ctx)
	if err != nil {
		return nil, err
	}
	srcs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if src := n.AttributeValue("src"); src != "" {
			srcs = append(srcs, src)
		}
	}
	return srcs, nil
}

func (f *feedItem) ClickImage(ctx context.Context, src string) error {
	nodes, err := f.imageNodes(ctx)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if n.AttributeValue("src") != src {
			continue
		}
		opCtx, cancel := f.session.op(f.session.opts.NavTimeout)
		defer cancel()
		if err := chromedp.Run(opCtx, chromedp.MouseClickNode(n)); err != nil {
			return fmt.Errorf("click gallery image: %w", err)
		}
		return nil
	}
	return errors.New("gallery image no longer present")
}

// ExpandSeeMore clicks the truncation control inside this item. The control
// is located by its visible text via an XPath rooted at the item's node; a
// timeout just means no control exists, which is the common case.
func (f *feedItem) ExpandSeeMore(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	xpath := fmt.Sprintf(`%s//div[@role="button"][contains(., %q)]`,
		f.node.FullXPath(), f.session.opts.SeeMoreLabel)

	opCtx, cancel := f.session.op(seeMoreTimeout)
	defer cancel()

	err := chromedp.Run(opCtx,
		chromedp.Click(xpath, chromedp.BySearch),
		chromedp.Sleep(closeSettle),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("expand see-more: %w", err)
	}
	return nil
}

func (f *feedItem) imageNodes(ctx context.Context) ([]*cdp.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opCtx, cancel := f.session.op(f.session.opts.NavTimeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(opCtx,
		chromedp.Nodes("img", &nodes, chromedp.ByQueryAll, chromedp.FromNode(f.node), chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("query item images: %w", err)
	}
	return nodes, nil
}
