package loader

import (
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/unbound-force/nilguard/internal/model"
)

// Assembly loads the package matching pattern and builds its member
// descriptors. Runtime values are attached separately with model.Bind.
func Assembly(pattern string) (*model.Assembly, error) {
	res, err := Load(pattern)
	if err != nil {
		return nil, err
	}
	return Build(res), nil
}

// Build derives the descriptors of a loaded package. The synthetic
// package type holding package-level functions comes first, followed
// by declared types in name order.
func Build(res *Result) *model.Assembly {
	b := &builder{
		pkg:       res.Pkg,
		fset:      res.Fset,
		decls:     make(map[*types.Func]*ast.FuncDecl),
		files:     make(map[string]*ast.File),
		generated: make(map[*ast.File]bool),
		ignored:   make(map[*ast.File]bool),
		typeDocs:  make(map[*types.TypeName][]*ast.CommentGroup),
		types:     make(map[*types.TypeName]*model.Type),
		enums:     make(map[*types.TypeName]bool),
	}
	b.qual = func(p *types.Package) string { return p.Name() }
	b.index()
	return b.build()
}

type builder struct {
	pkg  *packages.Package
	fset *token.FileSet
	qual types.Qualifier

	decls     map[*types.Func]*ast.FuncDecl
	files     map[string]*ast.File
	generated map[*ast.File]bool
	ignored   map[*ast.File]bool
	typeDocs  map[*types.TypeName][]*ast.CommentGroup
	types     map[*types.TypeName]*model.Type
	enums     map[*types.TypeName]bool
}

func (b *builder) index() {
	info := b.pkg.TypesInfo
	for _, file := range b.pkg.Syntax {
		if tf := b.fset.File(file.Pos()); tf != nil {
			b.files[tf.Name()] = file
		}
		b.generated[file] = ast.IsGenerated(file)
		b.ignored[file] = fileIgnored(file)

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if fn, ok := info.Defs[d.Name].(*types.Func); ok {
					b.decls[fn] = d
				}
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					if tn, ok := info.Defs[ts.Name].(*types.TypeName); ok {
						b.typeDocs[tn] = []*ast.CommentGroup{d.Doc, ts.Doc}
					}
				}
			}
		}
	}

	scope := b.pkg.Types.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok {
			continue
		}
		if n, ok := c.Type().(*types.Named); ok && n.Obj().Pkg() == b.pkg.Types {
			b.enums[n.Obj()] = true
		}
	}
}

func (b *builder) build() *model.Assembly {
	asm := &model.Assembly{Path: b.pkg.PkgPath, Name: b.pkg.Name}
	pkgType := &model.Type{
		PkgPath: b.pkg.PkgPath,
		PkgName: b.pkg.Name,
		Name:    b.pkg.Name,
		Kind:    model.KindPackage,
	}
	asm.Types = append(asm.Types, pkgType)

	scope := b.pkg.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		t := b.typeOf(tn, named)
		b.types[tn] = t
		asm.Types = append(asm.Types, t)
	}

	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok {
			continue
		}
		if owner := b.constructorOwner(fn); owner != nil {
			owner.Members = append(owner.Members, b.method(fn, owner, model.MemberConstructor))
			continue
		}
		pkgType.Members = append(pkgType.Members, b.method(fn, pkgType, model.MemberFunction))
	}

	for tn, t := range b.types {
		d := collectDirectives(b.typeDocs[tn]...)
		if !d.ignore {
			continue
		}
		for _, m := range t.Members {
			m.Ignored = true
		}
	}
	return asm
}

func (b *builder) typeOf(tn *types.TypeName, named *types.Named) *model.Type {
	t := &model.Type{
		PkgPath:   b.pkg.PkgPath,
		PkgName:   b.pkg.Name,
		Name:      tn.Name(),
		Kind:      b.kind(tn, named),
		Generated: b.generatedAt(tn.Pos()),
	}
	for i := range named.TypeParams().Len() {
		t.TypeParams = append(t.TypeParams, b.typeParam(named.TypeParams().At(i)))
	}

	if iface, ok := named.Underlying().(*types.Interface); ok {
		t.Constraint = !iface.IsMethodSet()
		for i := range iface.NumExplicitMethods() {
			m := b.method(iface.ExplicitMethod(i), t, model.MemberMethod)
			m.Abstract = true
			t.Members = append(t.Members, m)
		}
		return t
	}

	for i := range named.NumMethods() {
		t.Members = append(t.Members, b.method(named.Method(i), t, model.MemberMethod))
	}

	ms := types.NewMethodSet(types.NewPointer(named))
	for i := range ms.Len() {
		sel := ms.At(i)
		if len(sel.Index()) < 2 {
			continue
		}
		m := b.method(sel.Obj().(*types.Func), t, model.MemberMethod)
		m.Promoted = true
		m.PointerReceiver = true
		t.Members = append(t.Members, m)
	}

	getters := make(map[string]*model.Method)
	for _, m := range t.Members {
		if len(m.Params) == 0 && len(m.Results) == 1 {
			getters[m.Name] = m
		}
	}
	for _, m := range t.Members {
		if prop, ok := strings.CutPrefix(m.Name, "Set"); ok && prop != "" && len(m.Params) == 1 {
			g := getters[prop]
			m.Setter = g != nil && g.Results[0].Name == m.Params[0].Type.Name
		}
	}
	return t
}

func (b *builder) kind(tn *types.TypeName, named *types.Named) model.Kind {
	switch named.Underlying().(type) {
	case *types.Struct:
		return model.KindStruct
	case *types.Interface:
		return model.KindInterface
	case *types.Basic:
		if b.enums[tn] {
			return model.KindEnum
		}
	}
	return model.KindNamed
}

// constructorOwner returns the type a NewX function constructs: its
// name starts with New (or new), it returns T or *T, optionally
// followed by an error, and T is a non-interface type of this package.
func (b *builder) constructorOwner(fn *types.Func) *model.Type {
	if !strings.HasPrefix(fn.Name(), "New") && !strings.HasPrefix(fn.Name(), "new") {
		return nil
	}
	res := fn.Type().(*types.Signature).Results()
	switch {
	case res.Len() == 1:
	case res.Len() == 2 && isError(res.At(1).Type()):
	default:
		return nil
	}

	typ := res.At(0).Type()
	if p, ok := typ.(*types.Pointer); ok {
		typ = p.Elem()
	}
	named, ok := typ.(*types.Named)
	if !ok {
		return nil
	}
	t := b.types[named.Origin().Obj()]
	if t == nil || t.Kind == model.KindInterface {
		return nil
	}
	return t
}

func (b *builder) method(fn *types.Func, t *model.Type, kind model.MemberKind) *model.Method {
	sig := fn.Type().(*types.Signature)
	m := &model.Method{
		Name:      fn.Name(),
		Kind:      kind,
		Declaring: t,
		Generated: b.generatedAt(fn.Pos()),
		Location:  b.fset.Position(fn.Pos()).String(),
	}
	if recv := sig.Recv(); recv != nil && kind == model.MemberMethod {
		_, m.PointerReceiver = recv.Type().(*types.Pointer)
	}
	if file := b.fileAt(fn.Pos()); file != nil && b.ignored[file] {
		m.Ignored = true
	}

	for i := range sig.TypeParams().Len() {
		m.TypeParams = append(m.TypeParams, b.typeParam(sig.TypeParams().At(i)))
	}

	params := sig.Params()
	for i := range params.Len() {
		v := params.At(i)
		name := v.Name()
		if name == "" || name == "_" {
			name = "arg" + strconv.Itoa(i)
		}
		m.Params = append(m.Params, &model.Param{
			Name:     name,
			Index:    i,
			Type:     b.typeRef(v.Type()),
			Variadic: sig.Variadic() && i == params.Len()-1,
		})
	}
	for i := range sig.Results().Len() {
		m.Results = append(m.Results, b.typeRef(sig.Results().At(i).Type()))
	}

	if decl := b.decls[fn]; decl != nil {
		m.Abstract = decl.Body == nil
		d := collectDirectives(decl.Doc)
		d.apply(m)
	}
	return m
}

func (b *builder) typeRef(t types.Type) model.TypeRef {
	ref := model.TypeRef{Name: types.TypeString(t, b.qual)}
	if tp, ok := t.(*types.TypeParam); ok {
		ref.TypeParam = tp.Obj().Name()
		ref.Kind = reflect.Interface
		// Report the kind the closing type argument will have.
		if iface, ok := tp.Constraint().Underlying().(*types.Interface); ok {
			if terms := collectTerms(iface); len(terms) > 0 {
				ref.Kind = kindOf(terms[0].Type())
			} else if !iface.Empty() && iface.NumMethods() == 0 && iface.IsComparable() {
				ref.Kind = reflect.Int
			}
		}
		return ref
	}
	ref.Kind = kindOf(t)
	if p, ok := t.Underlying().(*types.Pointer); ok {
		ref.ElemKind = kindOf(p.Elem())
	}
	return ref
}

func (b *builder) typeParam(tp *types.TypeParam) *model.TypeParam {
	c := types.Unalias(tp.Constraint())
	out := &model.TypeParam{
		Name:       tp.Obj().Name(),
		Constraint: types.TypeString(c, b.qual),
	}
	iface, ok := c.Underlying().(*types.Interface)
	if !ok {
		return out
	}
	if iface.Empty() {
		out.Any = true
		return out
	}

	for _, term := range collectTerms(iface) {
		s := types.TypeString(term.Type(), b.qual)
		if term.Tilde() {
			s = "~" + s
		}
		out.Terms = append(out.Terms, s)
	}
	out.Comparable = len(out.Terms) == 0 && iface.IsComparable()

	// A named constraint is one interface; only literals combine several.
	if _, inline := c.(*types.Interface); !inline {
		out.Methods = iface.NumMethods()
		return out
	}
	out.Methods = iface.NumExplicitMethods()
	for i := range iface.NumEmbeddeds() {
		e := iface.EmbeddedType(i)
		if _, ok := e.(*types.Union); ok || isComparable(e) {
			continue
		}
		if _, ok := e.Underlying().(*types.Interface); ok {
			out.Embedded = append(out.Embedded, types.TypeString(e, b.qual))
		}
	}
	return out
}

// collectTerms flattens the union terms of a constraint, descending into
// embedded and union-member interfaces.
func collectTerms(iface *types.Interface) []*types.Term {
	var out []*types.Term
	for i := range iface.NumEmbeddeds() {
		switch e := iface.EmbeddedType(i).(type) {
		case *types.Union:
			for j := range e.Len() {
				term := e.Term(j)
				if inner, ok := term.Type().Underlying().(*types.Interface); ok {
					out = append(out, collectTerms(inner)...)
					continue
				}
				out = append(out, term)
			}
		default:
			if inner, ok := e.Underlying().(*types.Interface); ok {
				out = append(out, collectTerms(inner)...)
				continue
			}
			out = append(out, types.NewTerm(false, e))
		}
	}
	return out
}

func (b *builder) fileAt(pos token.Pos) *ast.File {
	tf := b.fset.File(pos)
	if tf == nil {
		return nil
	}
	return b.files[tf.Name()]
}

func (b *builder) generatedAt(pos token.Pos) bool {
	file := b.fileAt(pos)
	return file != nil && b.generated[file]
}

var errorType = types.Universe.Lookup("error").Type()

func isError(t types.Type) bool { return types.Identical(t, errorType) }

func isComparable(t types.Type) bool {
	n, ok := t.(*types.Named)
	return ok && n.Obj().Pkg() == nil && n.Obj().Name() == "comparable"
}

func kindOf(t types.Type) reflect.Kind {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return basicKinds[u.Kind()]
	case *types.Pointer:
		return reflect.Pointer
	case *types.Slice:
		return reflect.Slice
	case *types.Array:
		return reflect.Array
	case *types.Map:
		return reflect.Map
	case *types.Chan:
		return reflect.Chan
	case *types.Signature:
		return reflect.Func
	case *types.Interface:
		return reflect.Interface
	case *types.Struct:
		return reflect.Struct
	}
	return reflect.Invalid
}

var basicKinds = map[types.BasicKind]reflect.Kind{
	types.Bool:          reflect.Bool,
	types.Int:           reflect.Int,
	types.Int8:          reflect.Int8,
	types.Int16:         reflect.Int16,
	types.Int32:         reflect.Int32,
	types.Int64:         reflect.Int64,
	types.Uint:          reflect.Uint,
	types.Uint8:         reflect.Uint8,
	types.Uint16:        reflect.Uint16,
	types.Uint32:        reflect.Uint32,
	types.Uint64:        reflect.Uint64,
	types.Uintptr:       reflect.Uintptr,
	types.Float32:       reflect.Float32,
	types.Float64:       reflect.Float64,
	types.Complex64:     reflect.Complex64,
	types.Complex128:    reflect.Complex128,
	types.String:        reflect.String,
	types.UnsafePointer: reflect.UnsafePointer,
}
