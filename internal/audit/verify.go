package audit

import (
	"github.com/deployseal/deployseal/pkg/model"
)

// VerifyResult reports the outcome of a chain verification pass.
type VerifyResult struct {
	Valid    bool   `json:"valid"`
	BrokenAt string `json:"broken_at,omitempty"` // entry ID of the first inconsistency
	Checked  int    `json:"checked"`
}

// Verify recomputes every signature from the genesis constant forward,
// spanning segment boundaries transparently. The first inconsistency is
// reported; nothing is skipped. A broken chain is a result, not an error;
// errors are reserved for unreadable state.
func (c *Chain) Verify() (*VerifyResult, error) {
	all, err := c.All()
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Valid: true}
	prev := model.ChainGenesis

	for i := range all {
		entry := &all[i]

		if entry.PrevSignature != prev {
			result.Valid = false
			result.BrokenAt = entry.ID
			return result, nil
		}

		want, err := Signature(entry)
		if err != nil {
			return nil, err
		}
		if want != entry.Signature {
			result.Valid = false
			result.BrokenAt = entry.ID
			return result, nil
		}

		prev = entry.Signature
		result.Checked++
	}

	return result, nil
}
