package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nurpe/rms-service-orders/internal/model"
)

// Action names a permission checked by Authorize.
type Action string

const (
	ActionViewOrders       Action = "view orders"
	ActionManageClients    Action = "manage clients"
	ActionManageOrders     Action = "manage orders"
	ActionTransitionOrders Action = "change order status"
	ActionManageTasks      Action = "manage tasks"
	ActionWorkTasks        Action = "work on tasks"
	ActionTrackTime        Action = "track time"
	ActionCorrectTime      Action = "correct time logs"
	ActionManageInvoices   Action = "manage invoices"
	ActionManageBudgets    Action = "manage budgets"
	ActionManageInventory  Action = "manage inventory"
	ActionUseInventory     Action = "use inventory"
	ActionResolveCalls     Action = "resolve order calls"
	ActionViewReports      Action = "view reports"
)

var (
	backOffice = []model.UserRole{model.UserRoleAdmin, model.UserRoleManager}
	everyone   = []model.UserRole{model.UserRoleAdmin, model.UserRoleManager, model.UserRoleWorker}
)

var policy = map[Action][]model.UserRole{
	ActionViewOrders:       everyone,
	ActionManageClients:    backOffice,
	ActionManageOrders:     backOffice,
	ActionTransitionOrders: backOffice,
	ActionManageTasks:      backOffice,
	ActionWorkTasks:        everyone,
	ActionTrackTime:        everyone,
	ActionCorrectTime:      backOffice,
	ActionManageInvoices:   backOffice,
	ActionManageBudgets:    backOffice,
	ActionManageInventory:  backOffice,
	ActionUseInventory:     everyone,
	ActionResolveCalls:     backOffice,
	ActionViewReports:      backOffice,
}

// Authorize is a pure check of the principal's role against the action.
func Authorize(principal model.Principal, action Action) error {
	if principal.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing caller identity", ErrPermissionDenied)
	}
	for _, role := range policy[action] {
		if role == principal.Role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not %s", ErrPermissionDenied, principal.Role, action)
}
