package ast

// A NodeDump is a plain-data description of a Node, fit to be serialized as
// YAML or JSON and stable under round-tripping, which the Node itself is not
// because of the tokens buried in it.
type NodeDump struct {
	Kind      string      `yaml:"node" json:"node"`
	Value     any         `yaml:"value,omitempty" json:"value,omitempty"`
	Name      string      `yaml:"name,omitempty" json:"name,omitempty"`
	Operator  string      `yaml:"operator,omitempty" json:"operator,omitempty"`
	Params    []string    `yaml:"params,omitempty" json:"params,omitempty"`
	Left      *NodeDump   `yaml:"left,omitempty" json:"left,omitempty"`
	Right     *NodeDump   `yaml:"right,omitempty" json:"right,omitempty"`
	Args      []*NodeDump `yaml:"args,omitempty" json:"args,omitempty"`
	Prototype *NodeDump   `yaml:"prototype,omitempty" json:"prototype,omitempty"`
	Body      *NodeDump   `yaml:"body,omitempty" json:"body,omitempty"`
}

func Dump(node Node) *NodeDump {
	switch node := node.(type) {
	case *CallExpression:
		args := []*NodeDump{}
		for _, arg := range node.Args {
			args = append(args, Dump(arg))
		}
		return &NodeDump{Kind: "call", Name: node.Callee, Args: args}
	case *FunctionDef:
		return &NodeDump{Kind: "function", Prototype: Dump(node.Proto), Body: Dump(node.Body)}
	case *Identifier:
		return &NodeDump{Kind: "variable", Name: node.Value}
	case *InfixExpression:
		return &NodeDump{Kind: "binary", Operator: node.Operator, Left: Dump(node.Left), Right: Dump(node.Right)}
	case *NumberLiteral:
		return &NodeDump{Kind: "number", Value: node.Value}
	case *Prototype:
		return &NodeDump{Kind: "prototype", Name: node.Name, Params: node.Params}
	}
	return nil
}
