package rights

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	FormRoleID = "role_id"
	FormUserID = "user_id"
)

// SavePayload lists, per capability, the menu ids on which the capability is
// enabled. A menu missing from a list has the capability disabled; false is
// never transmitted.
type SavePayload struct {
	RoleID string                 `json:"roleId"`
	UserID string                 `json:"userId"`
	Rights map[Capability][]int64 `json:"rights"`
}

func Serialize(roleID, userID string, f Forest) SavePayload {
	payload := SavePayload{RoleID: roleID, UserID: userID, Rights: map[Capability][]int64{}}
	f.Walk(func(_ Path, n MenuNode) bool {
		for _, c := range Capabilities {
			if n.Permissions.Get(c) {
				payload.Rights[c] = append(payload.Rights[c], n.ID)
			}
		}
		return true
	})
	return payload
}

// FormKey is the repeated form key for capability c, e.g. "view[12][]".
func FormKey(c Capability, roleID string) string {
	return string(c) + "[" + roleID + "][]"
}

func (p SavePayload) Encode() url.Values {
	values := url.Values{}
	values.Set(FormRoleID, p.RoleID)
	if p.UserID != "" {
		values.Set(FormUserID, p.UserID)
	}
	for _, c := range Capabilities {
		for _, id := range p.Rights[c] {
			values.Add(FormKey(c, p.RoleID), strconv.FormatInt(id, 10))
		}
	}
	return values
}

// DecodeSavePayload reads the form produced by Encode. Keys that are not
// capability lists are ignored; a capability list addressed to another role
// or carrying a non-numeric id is rejected.
func DecodeSavePayload(form url.Values) (SavePayload, error) {
	roleID := strings.TrimSpace(form.Get(FormRoleID))
	if roleID == "" {
		return SavePayload{}, fmt.Errorf("%w: %s is required", ErrMalformedSavePayload, FormRoleID)
	}
	payload := SavePayload{
		RoleID: roleID,
		UserID: strings.TrimSpace(form.Get(FormUserID)),
		Rights: map[Capability][]int64{},
	}
	for key, values := range form {
		name, keyRole, ok := splitFormKey(key)
		if !ok {
			continue
		}
		c, err := ParseCapability(name)
		if err != nil {
			continue
		}
		if keyRole != roleID {
			return SavePayload{}, fmt.Errorf("%w: %s addresses role %q", ErrMalformedSavePayload, key, keyRole)
		}
		for _, raw := range values {
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil || id <= 0 {
				return SavePayload{}, fmt.Errorf("%w: invalid menu id %q for %s", ErrMalformedSavePayload, raw, key)
			}
			payload.Rights[c] = append(payload.Rights[c], id)
		}
	}
	return payload, nil
}

func splitFormKey(key string) (string, string, bool) {
	if !strings.HasSuffix(key, "][]") {
		return "", "", false
	}
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return "", "", false
	}
	return key[:open], key[open+1 : len(key)-3], true
}

// Grants folds the payload into per-menu permissions.
func (p SavePayload) Grants() map[int64]Permissions {
	out := map[int64]Permissions{}
	for c, ids := range p.Rights {
		for _, id := range ids {
			out[id] = out[id].With(c, true)
		}
	}
	return out
}

func (p SavePayload) MenuIDs() []int64 {
	grants := p.Grants()
	ids := make([]int64, 0, len(grants))
	for id := range grants {
		ids = append(ids, id)
	}
	return ids
}

// Apply overlays the payload onto f: every node's capabilities become
// exactly what the payload grants it.
func (p SavePayload) Apply(f Forest) Forest {
	grants := p.Grants()
	return Forest(applyGrants(f, grants))
}

func applyGrants(nodes []MenuNode, grants map[int64]Permissions) []MenuNode {
	if nodes == nil {
		return nil
	}
	out := make([]MenuNode, len(nodes))
	for i, n := range nodes {
		n.Permissions = grants[n.ID]
		n.Children = applyGrants(n.Children, grants)
		out[i] = n
	}
	return out
}
