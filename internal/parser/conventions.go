package parser

import (
	"strings"
	"unicode"

	"github.com/dshills/jscontext-mcp/pkg/types"
)

// detectConventions identifies common JavaScript architectural roles based on
// naming conventions. extendsName is the superclass from the declaration
// header, empty for functions and methods.
func detectConventions(el *types.StructuralElement, extendsName string) {
	checkComponent(el, extendsName)
	checkHook(el)
	checkService(el)
	checkController(el)
	checkStore(el)
	checkHandler(el)
}

func checkComponent(el *types.StructuralElement, extendsName string) {
	if strings.HasSuffix(el.Name, "Component") {
		el.IsComponent = true
		return
	}
	// class Foo extends React.Component / PureComponent
	if strings.Contains(extendsName, "Component") {
		el.IsComponent = true
	}
}

func checkHook(el *types.StructuralElement) {
	if el.Kind == types.KindClass {
		return
	}
	// React hook convention: use followed by an upper-case letter
	if strings.HasPrefix(el.Name, "use") && len(el.Name) > 3 &&
		unicode.IsUpper(rune(el.Name[3])) {
		el.IsHook = true
	}
}

func checkService(el *types.StructuralElement) {
	if strings.HasSuffix(el.Name, "Service") {
		el.IsService = true
	}
}

func checkController(el *types.StructuralElement) {
	if strings.HasSuffix(el.Name, "Controller") {
		el.IsController = true
	}
}

func checkStore(el *types.StructuralElement) {
	if strings.HasSuffix(el.Name, "Store") {
		el.IsStore = true
	}
}

func checkHandler(el *types.StructuralElement) {
	if strings.HasSuffix(el.Name, "Handler") {
		el.IsHandler = true
		return
	}
	// handleClick, handleSubmit, ...
	if strings.HasPrefix(el.Name, "handle") && len(el.Name) > 6 &&
		unicode.IsUpper(rune(el.Name[6])) {
		el.IsHandler = true
	}
}
