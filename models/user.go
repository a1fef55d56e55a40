package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ResultID is the string-normalised key of a profile (or of a duplicate) in the
// results map and order.
type ResultID string

// DuplicateSuffix is appended to the id of a profile to form the id of its copy.
const DuplicateSuffix = "_copy"

// CopyOf returns the id used for the duplicate of id.
func CopyOf(id ResultID) ResultID {
	return id + DuplicateSuffix
}

// ToID normalises numeric and string ids to a ResultID.
func ToID(v any) ResultID {
	switch id := v.(type) {
	case ResultID:
		return id
	case string:
		return ResultID(id)
	case ProfileID:
		return ResultID(id.String())
	case int:
		return ResultID(strconv.Itoa(id))
	case int64:
		return ResultID(strconv.FormatInt(id, 10))
	case float64:
		return ResultID(strconv.FormatFloat(id, 'f', -1, 64))
	default:
		return ResultID(fmt.Sprint(id))
	}
}

// ProfileID is a GitHub account id. Search results carry numbers, duplicates
// carry synthetic strings, so both shapes are accepted and preserved.
type ProfileID struct {
	value   string
	numeric bool
}

// NumericID builds an id from a GitHub numeric id.
func NumericID(n int64) ProfileID {
	return ProfileID{value: strconv.FormatInt(n, 10), numeric: true}
}

// StringID builds an id from an arbitrary string.
func StringID(s string) ProfileID {
	return ProfileID{value: s}
}

func (id ProfileID) String() string {
	return id.value
}

// Int64 returns the numeric value when the id is numeric.
func (id ProfileID) Int64() (int64, bool) {
	if !id.numeric {
		return 0, false
	}
	n, err := strconv.ParseInt(id.value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ProfileID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ProfileID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("profile id: %w", err)
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("profile id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = NumericID(i)
		return nil
	}
	*id = StringID(n.String())
	return nil
}

// UserProfile is a GitHub account as returned by the user search endpoint.
type UserProfile struct {
	Login        string    `json:"login"`
	ID           ProfileID `json:"id"`
	NodeID       string    `json:"node_id,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	GravatarID   string    `json:"gravatar_id,omitempty"`
	URL          string    `json:"url,omitempty"`
	HTMLURL      string    `json:"html_url,omitempty"`
	ReposURL     string    `json:"repos_url,omitempty"`
	Type         string    `json:"type,omitempty"`
	UserViewType string    `json:"user_view_type,omitempty"`
	SiteAdmin    bool      `json:"site_admin"`
	Score        float64   `json:"score"`

	// IsDuplicate marks a synthetic copy created from a selected profile.
	IsDuplicate bool `json:"isDuplicate,omitempty"`
	// OriginalID is the numeric id of the profile a copy was cloned from.
	OriginalID *int64 `json:"originalId,omitempty"`
}

// ResultID returns the key of the profile in the results map.
func (u UserProfile) ResultID() ResultID {
	return ToID(u.ID)
}

// UserSelectionMap stores which results are selected (result id to selection status).
type UserSelectionMap map[ResultID]bool
