package model

// Condition decides whether a row applies to a model.
type Condition interface {
	Check(row ModelData) bool
}

// ConditionFunc adapts a function to a Condition.
type ConditionFunc func(row ModelData) bool

func (f ConditionFunc) Check(row ModelData) bool { return f(row) }

// Always accepts every row.
var Always Condition = ConditionFunc(func(ModelData) bool { return true })
