package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/pkg/errors"

	"github.com/chazu/burl/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites scene script source before passing it to
// zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords never collide with user-defined variables.
//
//  2. Kebab-case to underscore: half-width -> half_width. zygomys reads a
//     hyphen inside an identifier as subtraction.
//
//  3. Line comments: ; and ;; become //, the zygomys comment syntax.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i, '"', true)
			result = append(result, b[i:j]...)
			i = j

		case b[i] == '`':
			j := skipQuoted(b, i, '`', false)
			result = append(result, b[i:j]...)
			i = j

		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}

		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, ':', '=')
			i += 2

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j

		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// Only a hyphen between identifier characters; a minus operator
			// is always followed by a space or a digit.
			result = append(result, '_')
			i++

		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

// skipQuoted returns the index just past the literal starting at b[i].
func skipQuoted(b []byte, i int, quote byte, escapes bool) int {
	j := i + 1
	for j < len(b) && b[j] != quote {
		if escapes && b[j] == '\\' && j+1 < len(b) {
			j += 2
			continue
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a scene.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   scene.NodeID
	kind scene.NodeKind
	name string // part name for printing
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.kind, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a scene.Vec3.
type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float returns keyword name as a number, or def when absent.
func (a kwArgs) float(fn, name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: %s", fn, name)
	}
	return f, nil
}

// vec returns keyword name as a vec3, or nil when absent.
func (a kwArgs) vec(fn, name string) (*scene.Vec3, error) {
	v, ok := a.kw[name]
	if !ok {
		return nil, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: %s", fn, name)
	}
	return &vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, errors.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", errors.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a solid reference. Parts are roots and cannot be
// nested.
func toNodeRef(s zygo.Sexp) (scene.NodeID, error) {
	ref, ok := s.(*sexpNodeRef)
	if !ok {
		return scene.ZeroID, errors.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
	}
	if ref.kind == scene.NodePart {
		return scene.ZeroID, errors.Errorf("part %q cannot be used as a solid", ref.name)
	}
	return ref.id, nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, errors.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRefs extracts a list of solid references from positional arguments,
// flattening lists and arrays so (union (list a b) c) works.
func toNodeRefs(fn string, args []zygo.Sexp) ([]scene.NodeID, error) {
	var ids []scene.NodeID
	for i, arg := range args {
		items := []zygo.Sexp{arg}
		switch v := arg.(type) {
		case *zygo.SexpPair:
			list, err := zygo.ListToArray(v)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: argument %d", fn, i+1)
			}
			items = list
		case *zygo.SexpArray:
			items = v.Val
		}
		for _, item := range items {
			id, err := toNodeRef(item)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: argument %d", fn, i+1)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Scene construction
// ---------------------------------------------------------------------------

// builder adds nodes to the scene under construction. Anonymous nodes are
// named by kind and creation order, so the same source always produces the
// same IDs.
type builder struct {
	s   *scene.Scene
	seq int
}

func (b *builder) add(kind scene.NodeKind, label string, children []scene.NodeID, data scene.NodeData) *sexpNodeRef {
	b.seq++
	id := scene.NewNodeID(fmt.Sprintf("%s/%d", label, b.seq))
	b.s.AddNode(&scene.Node{ID: id, Kind: kind, Children: children, Data: data})
	return &sexpNodeRef{id: id, kind: kind}
}

// builtin is the zygomys user function signature.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the scene builtins into a zygomys environment.
// The builtins populate s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {
	b := &builder{s: s}

	env.AddFunction("vec3", b.vec3)
	env.AddFunction("box", b.box)
	env.AddFunction("cylinder", b.cylinder)
	env.AddFunction("sphere", b.sphere)
	env.AddFunction("translate", b.transform("translate", false))
	env.AddFunction("rotate", b.transform("rotate", true))
	env.AddFunction("union", b.boolean(scene.OpUnion))
	env.AddFunction("difference", b.boolean(scene.OpDifference))
	env.AddFunction("intersection", b.boolean(scene.OpIntersection))
	env.AddFunction("part", b.part)
}

// (vec3 1 2 3)
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, errors.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, errors.Wrapf(err, "vec3: %s", axis)
		}
		c[i] = f
	}
	return &sexpVec3{vec: scene.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (box :size (vec3 40 20 10)) or (box 40 20 10)
func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	size, err := pa.vec("box", "size")
	if err != nil {
		return zygo.SexpNull, err
	}
	if size == nil {
		v, err := b.vec3(env, "box", pa.positional)
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "box: expected :size (vec3 x y z) or three dimensions")
		}
		size = &v.(*sexpVec3).vec
	}
	return b.add(scene.NodeSolid, "box", nil, scene.SolidData{Shape: scene.SolidBox, Size: *size}), nil
}

// (cylinder :height 20 :radius 5)
func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	height, err := pa.float("cylinder", "height", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	radius, err := pa.float("cylinder", "radius", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	if d, ok := pa.kw["diameter"]; ok {
		f, err := toFloat64(d)
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "cylinder: diameter")
		}
		radius = f / 2
	}
	return b.add(scene.NodeSolid, "cylinder", nil, scene.SolidData{
		Shape:  scene.SolidCylinder,
		Height: height,
		Radius: radius,
	}), nil
}

// (sphere :radius 10) or (sphere 10)
func (b *builder) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	radius, err := pa.float("sphere", "radius", 0)
	if err != nil {
		return zygo.SexpNull, err
	}
	if _, ok := pa.kw["radius"]; !ok {
		if len(pa.positional) != 1 {
			return zygo.SexpNull, errors.New("sphere requires :radius or one positional radius")
		}
		if radius, err = toFloat64(pa.positional[0]); err != nil {
			return zygo.SexpNull, errors.Wrap(err, "sphere: radius")
		}
	}
	return b.add(scene.NodeSolid, "sphere", nil, scene.SolidData{Shape: scene.SolidSphere, Radius: radius}), nil
}

// (translate solid :by (vec3 0 0 10))
// (rotate solid :by (vec3 0 0 45)) ; degrees
func (b *builder) transform(fn string, rotation bool) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, errors.Errorf("%s requires a solid as first argument", fn)
		}
		child, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, fn)
		}
		by, err := pa.vec(fn, "by")
		if err != nil {
			return zygo.SexpNull, err
		}
		if by == nil && len(pa.positional) == 2 {
			v, err := toVec3(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, errors.Wrapf(err, "%s: offset", fn)
			}
			by = &v
		}
		if by == nil {
			return zygo.SexpNull, errors.Errorf("%s requires :by (vec3 x y z)", fn)
		}

		td := scene.TransformData{Translation: by}
		if rotation {
			td = scene.TransformData{Rotation: by}
		}
		return b.add(scene.NodeTransform, fn, []scene.NodeID{child}, td), nil
	}
}

// (union a b c), (difference a b), (intersection a b)
func (b *builder) boolean(op scene.BooleanOp) builtin {
	fn := op.String()
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		children, err := toNodeRefs(fn, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(children) < 2 {
			return zygo.SexpNull, errors.Errorf("%s requires at least two solids, got %d", fn, len(children))
		}
		return b.add(scene.NodeBoolean, fn, children, scene.BooleanData{Op: op}), nil
	}
}

// (part "name" solid)
func (b *builder) part(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, errors.Errorf("part requires a name and a solid, got %d arguments", len(args))
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, errors.Wrap(err, "part: name")
	}
	if partName == "" {
		return zygo.SexpNull, errors.New("part: name must not be empty")
	}
	if b.s.Lookup(partName) != nil {
		return zygo.SexpNull, errors.Errorf("part: %q already defined", partName)
	}
	child, err := toNodeRef(args[1])
	if err != nil {
		return zygo.SexpNull, errors.Wrapf(err, "part %q", partName)
	}

	id := scene.NewNodeID("part/" + partName)
	b.s.AddNode(&scene.Node{
		ID:       id,
		Kind:     scene.NodePart,
		Name:     partName,
		Children: []scene.NodeID{child},
		Data:     scene.PartData{},
	})
	b.s.AddRoot(id)
	return &sexpNodeRef{id: id, kind: scene.NodePart, name: partName}, nil
}
