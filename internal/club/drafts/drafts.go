// Package drafts keeps administrators' unsaved directive slate edits. Drafts
// expire after a TTL; an expired draft is indistinguishable from a missing one.
package drafts

import (
	"encoding/json"
	"fmt"
	"time"

	"sportclub/internal/club/models"
	id "sportclub/pkg/domain"
)

// DefaultTTL is used when a store is built with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Key is the storage key of one administrator's draft for one club.
func Key(clubID id.ClubID, adminID id.UserID) string {
	return fmt.Sprintf("slate:draft:%s:%s", clubID, adminID)
}

type record struct {
	ClubID   string                  `json:"club_id"`
	AdminID  string                  `json:"admin_id"`
	Base     models.SlateAssignments `json:"base"`
	Proposed models.SlateAssignments `json:"proposed"`
	SavedAt  time.Time               `json:"saved_at"`
}

func encode(d *models.Draft) ([]byte, error) {
	return json.Marshal(record{
		ClubID:   d.ClubID.String(),
		AdminID:  d.AdminID.String(),
		Base:     models.FromSlate(d.Base),
		Proposed: models.FromSlate(d.Proposed),
		SavedAt:  d.SavedAt,
	})
}

func decode(data []byte) (*models.Draft, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	clubID, err := id.ParseClubID(r.ClubID)
	if err != nil {
		return nil, fmt.Errorf("decode draft club: %w", err)
	}
	adminID, err := id.ParseUserID(r.AdminID)
	if err != nil {
		return nil, fmt.Errorf("decode draft admin: %w", err)
	}
	base, err := r.Base.ToSlate()
	if err != nil {
		return nil, fmt.Errorf("decode draft base: %w", err)
	}
	proposed, err := r.Proposed.ToSlate()
	if err != nil {
		return nil, fmt.Errorf("decode draft proposal: %w", err)
	}
	return &models.Draft{
		ClubID:   clubID,
		AdminID:  adminID,
		Base:     base,
		Proposed: proposed,
		SavedAt:  r.SavedAt,
	}, nil
}
