package authorization

import (
	"context"

	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
)

// Objects and actions guarded by the role check. The full
// permission-group matrix lives in the admin gateway, not here.
const (
	ObjectProduct = "product"
	ObjectCompany = "company"
	ObjectProject = "project"
	ObjectCredit  = "credit"
	ObjectOrder   = "order"

	ActionWrite        = "write"
	ActionRead         = "read"
	ActionUpdateStatus = "update_status"
)

type Service interface {
	Authorize(ctx context.Context, actor *authdomain.User, object string, action string) error
}
