package oxido

type Node interface {
	Span() Span
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

// AssignStmt declares a variable. Type holds the annotation or, when
// Annotated is false, the type inferred from the expression shape; it is
// nil when inference could not decide.
type AssignStmt struct {
	Name      string
	Type      *DataType
	Annotated bool
	Value     Expression
	nameSpan  Span
	span      Span
}

func (s *AssignStmt) stmtNode()  {}
func (s *AssignStmt) Span() Span { return s.span }

type ReassignStmt struct {
	Name     string
	Value    Expression
	nameSpan Span
	span     Span
}

func (s *ReassignStmt) stmtNode()  {}
func (s *ReassignStmt) Span() Span { return s.span }

type VecReassignStmt struct {
	Name     string
	Index    Expression
	Value    Expression
	nameSpan Span
	span     Span
}

func (s *VecReassignStmt) stmtNode()  {}
func (s *VecReassignStmt) Span() Span { return s.span }

type IfStmt struct {
	Condition Expression
	Body      []Statement
	span      Span
}

func (s *IfStmt) stmtNode()  {}
func (s *IfStmt) Span() Span { return s.span }

type IfElseStmt struct {
	Condition Expression
	Then      []Statement
	Else      []Statement
	span      Span
}

func (s *IfElseStmt) stmtNode()  {}
func (s *IfElseStmt) Span() Span { return s.span }

type LoopStmt struct {
	Body []Statement
	span Span
}

func (s *LoopStmt) stmtNode()  {}
func (s *LoopStmt) Span() Span { return s.span }

// CallStmt is a call in statement position; any returned value is dropped.
type CallStmt struct {
	Call *CallExpr
	span Span
}

func (s *CallStmt) stmtNode()  {}
func (s *CallStmt) Span() Span { return s.span }

type FunctionStmt struct {
	Name       string
	Params     []Param
	ReturnType *DataType
	Body       []Statement
	span       Span
}

func (s *FunctionStmt) stmtNode()  {}
func (s *FunctionStmt) Span() Span { return s.span }

type BreakStmt struct {
	span Span
}

func (s *BreakStmt) stmtNode()  {}
func (s *BreakStmt) Span() Span { return s.span }

type ReturnStmt struct {
	Value Expression
	span  Span
}

func (s *ReturnStmt) stmtNode()  {}
func (s *ReturnStmt) Span() Span { return s.span }

type ExitStmt struct {
	Value Expression
	span  Span
}

func (s *ExitStmt) stmtNode()  {}
func (s *ExitStmt) Span() Span { return s.span }

type BinaryExpr struct {
	Left     Expression
	Operator Token
	Right    Expression
	span     Span
}

func (e *BinaryExpr) exprNode()  {}
func (e *BinaryExpr) Span() Span { return e.span }

type StringLiteral struct {
	Value string
	span  Span
}

func (e *StringLiteral) exprNode()  {}
func (e *StringLiteral) Span() Span { return e.span }

type IntegerLiteral struct {
	Value int64
	span  Span
}

func (e *IntegerLiteral) exprNode()  {}
func (e *IntegerLiteral) Span() Span { return e.span }

type BoolLiteral struct {
	Value bool
	span  Span
}

func (e *BoolLiteral) exprNode()  {}
func (e *BoolLiteral) Span() Span { return e.span }

type CallExpr struct {
	Name     string
	Args     []Expression
	nameSpan Span
	span     Span
}

func (e *CallExpr) exprNode()  {}
func (e *CallExpr) Span() Span { return e.span }

type Identifier struct {
	Name string
	span Span
}

func (e *Identifier) exprNode()  {}
func (e *Identifier) Span() Span { return e.span }

// VectorLiteral holds the element type inferred from the first element, or
// nil when it has to be taken from the evaluated elements or the context.
type VectorLiteral struct {
	Elements []Expression
	ElemType *DataType
	span     Span
}

func (e *VectorLiteral) exprNode()  {}
func (e *VectorLiteral) Span() Span { return e.span }

type IndexExpr struct {
	Name     string
	Index    Expression
	nameSpan Span
	span     Span
}

func (e *IndexExpr) exprNode()  {}
func (e *IndexExpr) Span() Span { return e.span }
