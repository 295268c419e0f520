package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
	"relief/pkg/requestcontext"
)

// Cache persists drafts keyed by (uid, fundCode). Switching the active
// identity to a different fund must never resurrect another fund's draft;
// the key scheme plus explicit invalidation enforce that.
type Cache struct {
	kv KV
}

func NewCache(kv KV) (*Cache, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	return &Cache{kv: kv}, nil
}

func draftKey(uid domain.UserID, code domain.FundCode) string {
	return "draft:" + uid.String() + ":" + code.String()
}

// assistantKey holds the transient assistant-conversation state tied to the
// same (uid, fund) scope as the draft.
func assistantKey(uid domain.UserID, code domain.FundCode) string {
	return "assist:" + uid.String() + ":" + code.String()
}

// Load returns the stored draft for (uid, fund), or nil when none exists.
func (c *Cache) Load(ctx context.Context, uid domain.UserID, code domain.FundCode) (*Draft, error) {
	raw, err := c.kv.Get(ctx, draftKey(uid, code))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "draft read failed")
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		// A corrupt draft is scratch data; drop it rather than wedge the flow.
		_ = c.kv.Remove(ctx, draftKey(uid, code))
		return nil, nil
	}
	return &d, nil
}

// Merge applies a partial patch, creating the draft (with skeletons) when
// absent, and returns the merged draft.
func (c *Cache) Merge(ctx context.Context, uid domain.UserID, code domain.FundCode, p Patch) (*Draft, error) {
	d, err := c.Load(ctx, uid, code)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = NewDraft()
	}
	d.Apply(p, requestcontext.Now(ctx))

	raw, err := json.Marshal(d)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "draft encode failed")
	}
	if err := c.kv.Set(ctx, draftKey(uid, code), string(raw)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "draft write failed")
	}
	return d, nil
}

// Clear removes the draft and any assistant-conversation scratch for
// (uid, fund). Called on successful submission, explicit reset, and fund
// switch.
func (c *Cache) Clear(ctx context.Context, uid domain.UserID, code domain.FundCode) error {
	if err := c.kv.Remove(ctx, draftKey(uid, code)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "draft clear failed")
	}
	if err := c.kv.Remove(ctx, assistantKey(uid, code)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "assistant cache clear failed")
	}
	return nil
}
