package oxido

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DumpYAML renders the token stream and statement tree as a YAML document.
func (p *Program) DumpYAML() ([]byte, error) {
	tokens := sequenceNode()
	for _, tok := range p.tokens {
		tokens.Content = append(tokens.Content, dumpToken(tok))
	}
	doc := mappingNode(
		"program", strNode(p.source.Name),
		"tokens", tokens,
		"statements", dumpStatements(p.statements),
	)
	return yaml.Marshal(doc)
}

func dumpToken(tok Token) *yaml.Node {
	node := mappingNode("type", strNode(string(tok.Type)))
	switch tok.Type {
	case tokenInt:
		appendPair(node, "value", intNode(tok.Int))
	case tokenBool:
		appendPair(node, "value", boolNode(tok.Bool))
	case tokenString, tokenIdent, tokenFuncName:
		appendPair(node, "value", strNode(tok.Literal))
	case tokenDataType:
		appendPair(node, "value", strNode(tok.DataType.String()))
	}
	appendPair(node, "offset", intNode(int64(tok.Span.Start)))
	node.Style = yaml.FlowStyle
	return node
}

func dumpStatements(stmts []Statement) *yaml.Node {
	seq := sequenceNode()
	for _, stmt := range stmts {
		seq.Content = append(seq.Content, dumpStatement(stmt))
	}
	return seq
}

func dumpStatement(stmt Statement) *yaml.Node {
	span := stmt.Span()
	var node *yaml.Node
	switch s := stmt.(type) {
	case *AssignStmt:
		node = mappingNode("assign", strNode(s.Name))
		if s.Type != nil {
			key := "inferred"
			if s.Annotated {
				key = "type"
			}
			appendPair(node, key, strNode(s.Type.String()))
		}
		appendPair(node, "value", dumpExpression(s.Value))
	case *ReassignStmt:
		node = mappingNode("reassign", strNode(s.Name), "value", dumpExpression(s.Value))
	case *VecReassignStmt:
		node = mappingNode("vec_reassign", strNode(s.Name), "index", dumpExpression(s.Index), "value", dumpExpression(s.Value))
	case *IfStmt:
		node = mappingNode("if", dumpExpression(s.Condition), "body", dumpStatements(s.Body))
	case *IfElseStmt:
		node = mappingNode("if", dumpExpression(s.Condition), "then", dumpStatements(s.Then), "else", dumpStatements(s.Else))
	case *LoopStmt:
		node = mappingNode("loop", dumpStatements(s.Body))
	case *CallStmt:
		node = mappingNode("call", strNode(s.Call.Name), "args", dumpExpressions(s.Call.Args))
	case *FunctionStmt:
		params := sequenceNode()
		for _, param := range s.Params {
			pn := mappingNode(param.Name, strNode(param.Type.String()))
			pn.Style = yaml.FlowStyle
			params.Content = append(params.Content, pn)
		}
		node = mappingNode("fn", strNode(s.Name), "params", params)
		if s.ReturnType != nil {
			appendPair(node, "returns", strNode(s.ReturnType.String()))
		}
		appendPair(node, "body", dumpStatements(s.Body))
	case *BreakStmt:
		node = mappingNode("break", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "~"})
	case *ReturnStmt:
		node = mappingNode("return", dumpExpression(s.Value))
	case *ExitStmt:
		node = mappingNode("exit", dumpExpression(s.Value))
	default:
		node = mappingNode("unknown", strNode(fmt.Sprintf("%T", stmt)))
	}
	appendPair(node, "span", spanNode(span))
	return node
}

func dumpExpressions(exprs []Expression) *yaml.Node {
	seq := sequenceNode()
	for _, expr := range exprs {
		seq.Content = append(seq.Content, dumpExpression(expr))
	}
	return seq
}

func dumpExpression(expr Expression) *yaml.Node {
	switch e := expr.(type) {
	case *IntegerLiteral:
		return intNode(e.Value)
	case *StringLiteral:
		return strNode(e.Value)
	case *BoolLiteral:
		return boolNode(e.Value)
	case *Identifier:
		return flow(mappingNode("ident", strNode(e.Name)))
	case *IndexExpr:
		return flow(mappingNode("index", strNode(e.Name), "at", dumpExpression(e.Index)))
	case *CallExpr:
		return flow(mappingNode("call", strNode(e.Name), "args", flow(dumpExpressions(e.Args))))
	case *VectorLiteral:
		node := mappingNode("vec", flow(dumpExpressions(e.Elements)))
		if e.ElemType != nil {
			appendPair(node, "elem", strNode(e.ElemType.String()))
		}
		return flow(node)
	case *BinaryExpr:
		return mappingNode("op", strNode(e.Operator.Literal), "left", dumpExpression(e.Left), "right", dumpExpression(e.Right))
	default:
		return strNode(fmt.Sprintf("%T", expr))
	}
}

// mappingNode builds a mapping from alternating string keys and values.
func mappingNode(pairs ...any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(pairs); i += 2 {
		appendPair(node, pairs[i].(string), pairs[i+1].(*yaml.Node))
	}
	return node
}

func appendPair(node *yaml.Node, key string, value *yaml.Node) {
	node.Content = append(node.Content, strNode(key), value)
}

func sequenceNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func spanNode(span Span) *yaml.Node {
	return flow(&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{
		intNode(int64(span.Start)),
		intNode(int64(span.End)),
	}})
}

func flow(node *yaml.Node) *yaml.Node {
	node.Style = yaml.FlowStyle
	return node
}
