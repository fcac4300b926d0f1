package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmrenderer "github.com/wippyai/wasm-renderer"
	"github.com/wippyai/wasm-renderer/engine"
	"github.com/wippyai/wasm-renderer/errors"
	"github.com/wippyai/wasm-renderer/schema"
	"github.com/wippyai/wasm-renderer/wasm"
)

// Load compiles, links and validates a guest and returns a ready Session.
// On failure it returns a categorized *errors.Error and releases everything
// it allocated; a partially valid Session is never returned.
func (r *Runtime) Load(ctx context.Context, wasmBytes []byte) (*Session, error) {
	compiled, err := r.engine.Compile(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Malformed(err)
	}
	defer compiled.Close(ctx)

	if err := checkLinkable(compiled); err != nil {
		return nil, err
	}

	inst, err := compiled.Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation("failed to instantiate module", err)
	}

	sess, err := r.validate(inst)
	if err != nil {
		inst.Close(ctx)
		return nil, err
	}

	for _, w := range schema.Lint(sess.schema) {
		r.logger.Warn("schema lint", zap.String("session", sess.id), zap.String("warning", w))
	}
	r.logger.Info("guest loaded",
		zap.String("session", sess.id),
		zap.Int("params", len(sess.schema)),
		zap.String("signature", schema.Signature(CallbackName, sess.schema)))
	return sess, nil
}

// checkLinkable rejects start functions and every import except env.render.
func checkLinkable(mod *engine.WazeroModule) error {
	if mod.HasStart() {
		return errors.Instantiation("start function is not allowed", nil)
	}
	for _, imp := range mod.Imports() {
		if imp.Kind != wasm.KindFunc || imp.Module != RenderModule || imp.Name != RenderName {
			return errors.New(errors.PhaseLink, errors.KindInstantiation).
				Export(imp.String()).
				Detail("unresolved import %s", imp).
				Build()
		}
		if len(imp.Params) != 1 || imp.Params[0] != api.ValueTypeI32 || len(imp.Results) != 0 {
			return errors.New(errors.PhaseLink, errors.KindInstantiation).
				Export(imp.String()).
				Detail("import %s has signature %s, expected (i32) -> ()", imp, funcSignature(imp.Params, imp.Results)).
				Build()
		}
	}
	return nil
}

func (r *Runtime) validate(inst *engine.WazeroInstance) (*Session, error) {
	callback := inst.Function(CallbackName)
	if callback == nil {
		return nil, errors.MissingExport(CallbackName, "function")
	}

	mem := inst.Memory()
	if mem == nil {
		return nil, errors.MissingExport(MemoryExport, "memory")
	}

	s, err := readSchema(inst, mem)
	if err != nil {
		return nil, err
	}

	def := callback.Definition()
	expected := s.ValueTypes()
	actual := def.ParamTypes()
	if !equalValueTypes(expected, actual) {
		return nil, errors.SchemaMismatch(CallbackName, schema.TypeNames(expected), schema.TypeNames(actual))
	}
	if results := def.ResultTypes(); len(results) > 0 {
		return nil, errors.InvalidSignature(CallbackName, schema.TypeNames(results))
	}

	return &Session{
		id:        uuid.NewString(),
		instance:  inst,
		callback:  callback,
		schema:    s,
		overrides: make(map[int]uint64),
		created:   r.clock(),
		clock:     r.clock,
		logger:    r.logger,
		tracer:    r.tracer,
	}, nil
}

// readSchema extracts the optional SCHEMA global. A missing global means
// the callback takes no parameters.
func readSchema(inst *engine.WazeroInstance, mem wasmrenderer.Memory) (schema.Schema, error) {
	g := inst.Global(SchemaGlobal)
	if g == nil {
		return schema.Schema{}, nil
	}
	if g.Type() != api.ValueTypeI32 {
		return nil, errors.Schema("SCHEMA must be i32", nil)
	}

	ptr := api.DecodeU32(g.Get())
	text, err := mem.ReadCString(ptr)
	if err != nil {
		var merr *errors.Error
		if stderrors.As(err, &merr) {
			switch merr.Kind {
			case errors.KindUnterminated:
				return nil, errors.Schema("SCHEMA must be null-terminated", err)
			case errors.KindInvalidUTF8:
				return nil, errors.Schema("SCHEMA must be valid UTF-8", err)
			}
		}
		return nil, errors.Schema("SCHEMA pointer out of bounds", err)
	}

	s, err := schema.Parse(text)
	if err != nil {
		return nil, errors.Schema("invalid schema JSON", err)
	}
	return s, nil
}

func equalValueTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func funcSignature(params, results []api.ValueType) string {
	return fmt.Sprintf("(%s) -> (%s)",
		strings.Join(schema.TypeNames(params), ", "),
		strings.Join(schema.TypeNames(results), ", "))
}
