package sim

import (
	"strconv"
	"strings"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Name is a hierarchical name that includes a series of tokens separated
// by dots, for example "Network.Router[3].Crossbar".
type Name struct {
	Tokens []NameToken
}

// NameToken is one element of a hierarchical name.
type NameToken struct {
	ElemName string
	Index    []int
}

// ParseName parses a name string and returns a Name object.
func ParseName(sname string) Name {
	tokens := strings.Split(sname, ".")
	name := Name{Tokens: make([]NameToken, len(tokens))}

	for i, token := range tokens {
		name.Tokens[i] = parseNameToken(token)
	}

	return name
}

func parseNameToken(token string) NameToken {
	bracketMustMatch(token)

	parts := strings.Split(token, "[")
	indices := make([]int, len(parts)-1)

	for i := 1; i < len(parts); i++ {
		index, err := strconv.Atoi(strings.TrimSuffix(parts[i], "]"))
		if err != nil {
			panic("name index must be an integer")
		}

		indices[i-1] = index
	}

	return NameToken{ElemName: parts[0], Index: indices}
}

func bracketMustMatch(token string) {
	depth := 0

	for _, c := range token {
		switch c {
		case '[':
			depth++
			if depth > 1 {
				panic("name brackets must not nest")
			}
		case ']':
			depth--
			if depth < 0 {
				panic("name brackets must match")
			}
		}
	}

	if depth != 0 {
		panic("name brackets must match")
	}
}

// NameMustBeValid panics if the name does not follow the naming convention.
// A valid name is a dot-separated list of non-empty CamelCase elements that
// start with a capital letter. Elements of a series use square-bracket
// indices, as in "Mesh.Router[2][3]".
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("name " + name + " is not valid: " + r.(string))
		}
	}()

	n := ParseName(name)
	for _, token := range n.Tokens {
		tokenMustBeValid(token)
	}
}

func tokenMustBeValid(token NameToken) {
	if token.ElemName == "" {
		panic("name element must not be empty")
	}

	if strings.ContainsAny(token.ElemName, "_\"'- ") {
		panic("name element must not contain separators or quotes")
	}

	if token.ElemName[0] < 'A' || token.ElemName[0] > 'Z' {
		panic("name element must start with a capital letter")
	}
}

// BuildName joins a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name for the index-th element of a series.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
