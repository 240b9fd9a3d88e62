package access

import "time"

// Record is the authorization record of one identity, stored as a document
// in the admins collection keyed by the identity's uid.
type Record struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
