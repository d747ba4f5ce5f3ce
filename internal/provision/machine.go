package provision

import (
	"context"

	"github.com/looplab/fsm"
)

// Orchestrator states.
const (
	StateIdle               = "idle"
	StateConfiguringClient  = "configuring_client"
	StateEnsuringBucket     = "ensuring_bucket"
	StateEnsuringDatabase   = "ensuring_database"
	StateEnsuringCollection = "ensuring_collection"
	StateAddingAttributes   = "adding_attributes"
	StateSettlingSchema     = "settling_schema"
	StateAddingIndexes      = "adding_indexes"
	StateReporting          = "reporting"
	StateDone               = "done"
	StateFatalError         = "fatal_error"
)

const (
	eventConfigure        = "configure"
	eventCheckBucket      = "check_bucket"
	eventEnsureDatabase   = "ensure_database"
	eventEnsureCollection = "ensure_collection"
	eventAddAttributes    = "add_attributes"
	eventSettle           = "settle"
	eventAddIndexes       = "add_indexes"
	eventReport           = "report"
	eventFinish           = "finish"
	eventFail             = "fail"
)

// newMachine builds the provisioning state machine. onEnter is called after
// every transition.
func newMachine(onEnter func(ctx context.Context, from, to string)) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventConfigure, Src: []string{StateIdle}, Dst: StateConfiguringClient},
			{Name: eventCheckBucket, Src: []string{StateConfiguringClient}, Dst: StateEnsuringBucket},
			{Name: eventEnsureDatabase, Src: []string{StateEnsuringBucket}, Dst: StateEnsuringDatabase},
			{Name: eventEnsureCollection, Src: []string{StateEnsuringDatabase, StateAddingIndexes}, Dst: StateEnsuringCollection},
			{Name: eventAddAttributes, Src: []string{StateEnsuringCollection}, Dst: StateAddingAttributes},
			{Name: eventSettle, Src: []string{StateAddingAttributes}, Dst: StateSettlingSchema},
			{Name: eventAddIndexes, Src: []string{StateSettlingSchema}, Dst: StateAddingIndexes},
			{Name: eventReport, Src: []string{StateEnsuringDatabase, StateAddingIndexes}, Dst: StateReporting},
			{Name: eventFinish, Src: []string{StateReporting}, Dst: StateDone},
			{Name: eventFail, Src: []string{
				StateIdle,
				StateConfiguringClient,
				StateEnsuringBucket,
				StateEnsuringDatabase,
				StateEnsuringCollection,
				StateAddingAttributes,
				StateSettlingSchema,
				StateAddingIndexes,
			}, Dst: StateFatalError},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				onEnter(ctx, e.Src, e.Dst)
			},
		},
	)
}
