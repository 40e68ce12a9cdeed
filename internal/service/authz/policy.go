// Package authz evaluates role-gated operation checks independent of
// transport: the same policy answers for an HTTP handler or any other
// command carrier.
package authz

import (
	"github.com/tidianeba/qualichain/internal/domain/apperr"
	"github.com/tidianeba/qualichain/internal/domain/models"
)

// Operation identifiers, keyed the same way as the command surface.
const (
	OpPurchaseOrderCreate  = "PurchaseOrder.Create"
	OpPurchaseOrderSubmit  = "PurchaseOrder.Submit"
	OpPurchaseOrderApprove = "PurchaseOrder.Approve"
	OpPurchaseOrderReceive = "PurchaseOrder.Receive"
	OpPurchaseOrderCancel  = "PurchaseOrder.Cancel"
	OpPurchaseOrderGet     = "PurchaseOrder.GetById"

	OpGoodsReceiptCreate   = "GoodsReceipt.Create"
	OpGoodsReceiptVerify   = "GoodsReceipt.Verify"
	OpGoodsReceiptComplete = "GoodsReceipt.Complete"
	OpGoodsReceiptDelete   = "GoodsReceipt.Delete"
	OpGoodsReceiptGet      = "GoodsReceipt.GetById"

	OpQCTestCreate     = "QCTest.Create"
	OpQCTestDeactivate = "QCTest.Deactivate"
	OpQCTestGet        = "QCTest.GetById"
	OpQCTestList       = "QCTest.List"

	OpQCSampleCreate         = "QCSample.Create"
	OpQCSampleMarkReceived   = "QCSample.MarkReceived"
	OpQCSampleAssign         = "QCSample.Assign"
	OpQCSampleAssignTests    = "QCSample.AssignTests"
	OpQCSampleBeginTesting   = "QCSample.BeginTesting"
	OpQCSampleResultsEntered = "QCSample.MarkResultsEntered"
	OpQCSampleSubmit         = "QCSample.AdvanceToSubmitted"
	OpQCSampleComplete       = "QCSample.Complete"
	OpQCSampleGet            = "QCSample.GetById"

	OpQCResultCreate      = "QCResult.Create"
	OpQCResultUpdate      = "QCResult.Update"
	OpQCResultSubmitToQA  = "QCResult.SubmitToQA"
	OpQCResultGetBySample = "QCResult.GetBySample"

	OpQADeviationCreate       = "QADeviation.Create"
	OpQADeviationAssign       = "QADeviation.Assign"
	OpQADeviationUpdateStatus = "QADeviation.UpdateStatus"
	OpQADeviationClose        = "QADeviation.Close"
	OpQADeviationGet          = "QADeviation.GetById"

	OpQAReleaseCreate          = "QARelease.Create"
	OpQAReleaseUpdateChecklist = "QARelease.UpdateChecklist"
	OpQAReleaseMakeDecision    = "QARelease.MakeDecision"
	OpQAReleaseGet             = "QARelease.GetById"

	OpWarehouseNotifyRelease   = "Warehouse.NotifyRelease"
	OpWarehouseCompletePutaway = "Warehouse.CompletePutaway"
	OpWarehouseGetPutaway      = "Warehouse.GetPutaway"
)

// restricted maps operations to the roles allowed to invoke them. Operations
// absent from the map only require an authenticated principal.
var restricted = map[string][]string{
	OpPurchaseOrderApprove: {models.RoleProcurement},
	OpPurchaseOrderCancel:  {models.RoleProcurement},

	OpQCResultCreate:     {models.RoleQCAnalyst, models.RoleQCSupervisor},
	OpQCResultUpdate:     {models.RoleQCAnalyst, models.RoleQCSupervisor},
	OpQCResultSubmitToQA: {models.RoleQCAnalyst, models.RoleQCSupervisor},

	OpQAReleaseMakeDecision: {models.RoleQAManager},
	OpQADeviationClose:      {models.RoleQAManager},

	OpWarehouseNotifyRelease:   {models.RoleWarehouseOperator},
	OpWarehouseCompletePutaway: {models.RoleWarehouseOperator},
	OpWarehouseGetPutaway:      {models.RoleWarehouseOperator},
}

// CanPerform reports whether the principal may invoke the operation. Admin
// passes everything; unrestricted operations require only a principal id.
func CanPerform(p models.Principal, operation string) bool {
	if p.ID == "" {
		return false
	}
	if p.HasRole(models.RoleAdmin) {
		return true
	}

	roles, ok := restricted[operation]
	if !ok {
		return true
	}
	return p.HasAnyRole(roles...)
}

// Require returns a typed Forbidden error when the principal may not invoke
// the operation, nil otherwise.
func Require(p models.Principal, operation string) error {
	if p.ID == "" {
		return apperr.Unauthorized("principalMissing", "no authenticated principal")
	}
	if !CanPerform(p, operation) {
		return apperr.Forbidden("insufficientRole", "operation %s requires a role the principal lacks", operation)
	}
	return nil
}
