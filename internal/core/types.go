package core

import "siteledger/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Site               = domain.Site
	Worker             = domain.Worker
	Machine            = domain.Machine
	InventoryItem      = domain.InventoryItem
	StockMovement      = domain.StockMovement
	MaterialRequest    = domain.MaterialRequest
	Transfer           = domain.Transfer
	Supplier           = domain.Supplier
	Vehicle            = domain.Vehicle
	Trip               = domain.Trip
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntitySite            = domain.EntitySite
	EntityWorker          = domain.EntityWorker
	EntityMachine         = domain.EntityMachine
	EntityInventoryItem   = domain.EntityInventoryItem
	EntityStockMovement   = domain.EntityStockMovement
	EntityMaterialRequest = domain.EntityMaterialRequest
	EntityTransfer        = domain.EntityTransfer
	EntitySupplier        = domain.EntitySupplier
	EntityTrip            = domain.EntityTrip
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
