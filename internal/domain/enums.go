package domain

type ItemType string

const (
	ItemTask      ItemType = "task"
	ItemMilestone ItemType = "milestone"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

// ValidTaskStatuses is the canonical set of accepted task status strings.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskTodo: true, TaskInProgress: true, TaskDone: true, TaskCancelled: true,
}

type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneCompleted MilestoneStatus = "completed"
)

// ValidMilestoneStatuses is the canonical set of accepted milestone status strings.
var ValidMilestoneStatuses = map[MilestoneStatus]bool{
	MilestonePending: true, MilestoneCompleted: true,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities is the canonical set of accepted priority strings.
var ValidPriorities = map[Priority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true,
}

// DependencyType describes how a successor is scheduled relative to its
// predecessor. Only finish-to-start is implied by the flat dependency list.
type DependencyType string

const (
	FinishToStart  DependencyType = "FS"
	StartToStart   DependencyType = "SS"
	FinishToFinish DependencyType = "FF"
	StartToFinish  DependencyType = "SF"
)

// ValidDependencyTypes is the canonical set of accepted dependency type strings.
var ValidDependencyTypes = map[DependencyType]bool{
	FinishToStart: true, StartToStart: true, FinishToFinish: true, StartToFinish: true,
}

// String returns the long form, e.g. "finish-to-start".
func (d DependencyType) String() string {
	switch d {
	case FinishToStart:
		return "finish-to-start"
	case StartToStart:
		return "start-to-start"
	case FinishToFinish:
		return "finish-to-finish"
	case StartToFinish:
		return "start-to-finish"
	default:
		return string(d)
	}
}
