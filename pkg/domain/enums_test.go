package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRequestTransitions(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestPending, RequestApproved, true},
		{RequestPending, RequestRejected, true},
		{RequestPending, RequestCompleted, false},
		{RequestApproved, RequestInProgress, true},
		{RequestApproved, RequestRejected, false},
		{RequestInProgress, RequestCompleted, true},
		{RequestCompleted, RequestPending, false},
		{RequestRejected, RequestApproved, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
	if !RequestRejected.Terminal() || RequestApproved.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
	if RequestStatus("lost").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}

func TestTransferAndTripTransitions(t *testing.T) {
	if !TransferApproved.CanTransitionTo(TransferInTransit) || TransferApproved.CanTransitionTo(TransferCompleted) {
		t.Fatalf("transfer must pass through in_transit")
	}
	if TransferCompleted.CanTransitionTo(TransferInTransit) || !TransferRejected.Terminal() {
		t.Fatalf("terminal transfer states accept no transitions")
	}

	status := TripScheduled
	var path []TripStatus
	for {
		next, ok := status.Next()
		if !ok {
			break
		}
		path = append(path, next)
		status = next
	}
	if len(path) != 2 || path[1] != TripCompleted || !status.Terminal() {
		t.Fatalf("unexpected trip path %v", path)
	}
}

func TestPriorityRankAndSubjects(t *testing.T) {
	if !(PriorityUrgent.Rank() > PriorityHigh.Rank() && PriorityHigh.Rank() > PriorityMedium.Rank() && PriorityMedium.Rank() > PriorityLow.Rank()) {
		t.Fatalf("priorities out of order")
	}
	if Priority("whenever").Rank() != 0 || Priority("whenever").Valid() {
		t.Fatalf("unknown priority should rank lowest and be invalid")
	}
	if SubjectMachine.EntityType() != EntityMachine || SubjectWorker.EntityType() != EntityWorker {
		t.Fatalf("subject kinds map to the wrong entity types")
	}
}

func TestStockStatus(t *testing.T) {
	item := InventoryItem{MinStock: decimal.NewFromInt(5), MaxStock: decimal.NewFromInt(20)}
	cases := map[int64]StockStatus{0: StockLow, 5: StockLow, 6: StockNormal, 19: StockNormal, 20: StockHigh, 40: StockHigh}
	for level, want := range cases {
		item.CurrentStock = decimal.NewFromInt(level)
		if got := item.StockStatus(); got != want {
			t.Fatalf("stock %d: got %s want %s", level, got, want)
		}
	}
}

func TestTaskPhaseValid(t *testing.T) {
	for _, p := range []TaskPhase{PhaseDrainage, PhaseEarthMoving, PhaseGeneral} {
		if !p.Valid() {
			t.Fatalf("expected %s to be valid", p)
		}
	}
	for _, p := range []TaskPhase{"", "roofing", "earth-moving"} {
		if p.Valid() {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}

func TestHyphenatedLabelsDecode(t *testing.T) {
	var got struct {
		Worker   WorkerStatus   `json:"worker"`
		Phase    TaskPhase      `json:"phase"`
		Task     TaskStatus     `json:"task"`
		Request  RequestStatus  `json:"request"`
		Transfer TransferStatus `json:"transfer"`
	}
	body := `{"worker":"on-leave","phase":"Earth-Moving","task":"in-progress","request":"in-progress","transfer":" in-transit "}`
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Worker != WorkerOnLeave || got.Phase != PhaseEarthMoving || got.Task != TaskInProgress ||
		got.Request != RequestInProgress || got.Transfer != TransferInTransit {
		t.Fatalf("unexpected decode %+v", got)
	}
	if CanonicalLabel(" On-Leave ") != string(WorkerOnLeave) {
		t.Fatalf("unexpected canonical label %q", CanonicalLabel(" On-Leave "))
	}
}
