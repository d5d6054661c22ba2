package saga

import (
	"sort"
	"time"
)

// Observation is one stored record's contribution to an order's saga.
type Observation struct {
	Kind     string    `json:"kind"`
	RecordID string    `json:"recordId"`
	Status   string    `json:"status"`
	At       time.Time `json:"at"`
}

// Progress is the reconstructed state of one order.
type Progress struct {
	OrderID      string        `json:"orderId"`
	State        State         `json:"state"`
	FailedStage  Stage         `json:"failedStage,omitempty"`
	Observations []Observation `json:"observations"`
}

// Derive folds observations into the furthest state reached. Any error status
// makes the order FAILED, and FailedStage is the stage of the first error
// status in time order, not the earliest stage in the pipeline. Statuses
// outside the model are kept in Observations but ignored for the state.
func Derive(orderID string, observations []Observation) Progress {
	sorted := make([]Observation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	progress := Progress{OrderID: orderID, Observations: sorted}

	for _, obs := range sorted {
		status, ok := ParseStatus(obs.Status)
		if !ok {
			continue
		}

		if status.IsError() {
			if progress.State != StateFailed {
				progress.FailedStage = status.Stage()
			}
			progress.State = StateFailed
			continue
		}

		if progress.State != StateFailed && status.State().rank() > progress.State.rank() {
			progress.State = status.State()
		}
	}

	return progress
}
