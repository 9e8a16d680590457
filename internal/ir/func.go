package ir

// Param is a function parameter. Each parameter defines a value visible in
// every block of the function.
type Param struct {
	Name  string
	Type  Type
	Value ValueID
}

type Func struct {
	ID   FuncID
	Name string

	Params    []Param
	HasResult bool
	Result    Type

	// Slots are function-local stack slots addressed by OpLoad/OpStore.
	Slots []Type

	Blocks []Block
	Entry  BlockID

	// NextValue is the first unassigned ValueID; all defined values are
	// strictly below it.
	NextValue ValueID
}

// NewValue allocates a fresh ValueID.
func (f *Func) NewValue() ValueID {
	id := f.NextValue
	f.NextValue++
	return id
}

// NewBlock appends an empty, unterminated block and returns its ID.
func (f *Func) NewBlock() BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, Block{ID: id})
	return id
}
