package draft

import "time"

// Draft holds a partially completed application for one (user, fund). The
// three sub-sections are deep-mergeable maps so an incremental assistant can
// write fragments without clobbering sibling keys. Event and agreement carry
// default skeletons so partial writes never produce missing required keys.
type Draft struct {
	Profile   map[string]any `json:"profile"`
	Event     map[string]any `json:"event"`
	Agreement map[string]any `json:"agreement"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Patch is a partial update to a draft; nil sections are left untouched.
type Patch struct {
	Profile   map[string]any `json:"profile,omitempty"`
	Event     map[string]any `json:"event,omitempty"`
	Agreement map[string]any `json:"agreement,omitempty"`
}

// EventSkeleton is the default shape of the event section.
func EventSkeleton() map[string]any {
	return map[string]any{
		"eventType":       "",
		"eventDate":       "",
		"description":     "",
		"requestedAmount": float64(0),
		"expenseTypes":    []any{},
		"receiptUrls":     []any{},
	}
}

// AgreementSkeleton is the default shape of the agreement section.
func AgreementSkeleton() map[string]any {
	return map[string]any{
		"certifiedTruthful":  false,
		"acceptedTerms":      false,
		"consentedToContact": false,
	}
}

// NewDraft returns an empty draft with default skeletons in place.
func NewDraft() *Draft {
	return &Draft{
		Profile:   map[string]any{},
		Event:     EventSkeleton(),
		Agreement: AgreementSkeleton(),
	}
}

// Apply deep-merges a patch into the draft.
func (d *Draft) Apply(p Patch, now time.Time) {
	if p.Profile != nil {
		d.Profile = deepMerge(d.Profile, p.Profile)
	}
	if p.Event != nil {
		d.Event = deepMerge(d.Event, p.Event)
	}
	if p.Agreement != nil {
		d.Agreement = deepMerge(d.Agreement, p.Agreement)
	}
	d.UpdatedAt = now
}

// deepMerge overlays src onto dst recursively. Nested maps merge key-wise;
// any other value replaces wholesale.
func deepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				dst[k] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}
