package wasm

// section is one vector section of a module: n items, each written by item.
type section struct {
	item func(w *Writer, i int)
	n    int
	id   byte
}

// Encode produces the module's binary form. Empty sections are omitted and
// the rest are emitted in the order the binary format requires.
func (m *Module) Encode() []byte {
	out := NewWriter()
	out.WriteU32LE(Magic)
	out.WriteU32LE(Version)

	before := []section{
		{id: SectionType, n: len(m.Types), item: m.typeEntry},
		{id: SectionImport, n: len(m.Imports), item: m.importEntry},
		{id: SectionFunction, n: len(m.Funcs), item: func(w *Writer, i int) { w.WriteU32(m.Funcs[i]) }},
		{id: SectionMemory, n: len(m.Memories), item: func(w *Writer, i int) { limits(w, m.Memories[i]) }},
		{id: SectionGlobal, n: len(m.Globals), item: m.globalEntry},
		{id: SectionExport, n: len(m.Exports), item: m.exportEntry},
	}
	after := []section{
		{id: SectionCode, n: len(m.Code), item: m.codeEntry},
		{id: SectionData, n: len(m.Data), item: m.dataEntry},
	}

	for _, s := range before {
		s.encode(out)
	}
	if m.Start != nil {
		body := NewWriter()
		body.WriteU32(*m.Start)
		emit(out, SectionStart, body)
	}
	for _, s := range after {
		s.encode(out)
	}
	return out.Bytes()
}

func (s section) encode(out *Writer) {
	if s.n == 0 {
		return
	}
	body := NewWriter()
	body.WriteU32(uint32(s.n))
	for i := 0; i < s.n; i++ {
		s.item(body, i)
	}
	emit(out, s.id, body)
}

// emit writes a section header followed by its size-prefixed body.
func emit(out *Writer, id byte, body *Writer) {
	out.Byte(id)
	out.WriteU32(uint32(body.Len()))
	out.WriteBytes(body.Bytes())
}

func (m *Module) typeEntry(w *Writer, i int) {
	ft := m.Types[i]
	w.Byte(FuncTypeByte)
	resultTypes(w, ft.Params)
	resultTypes(w, ft.Results)
}

func (m *Module) importEntry(w *Writer, i int) {
	imp := m.Imports[i]
	w.WriteName(imp.Module)
	w.WriteName(imp.Name)
	w.Byte(imp.Kind)
	switch {
	case imp.Kind == KindFunc:
		w.WriteU32(imp.TypeIdx)
	case imp.Kind == KindMemory && imp.Memory != nil:
		limits(w, *imp.Memory)
	case imp.Kind == KindGlobal && imp.Global != nil:
		globalType(w, *imp.Global)
	}
}

func (m *Module) globalEntry(w *Writer, i int) {
	g := m.Globals[i]
	globalType(w, g.Type)
	w.WriteBytes(g.Init)
}

func (m *Module) exportEntry(w *Writer, i int) {
	e := m.Exports[i]
	w.WriteName(e.Name)
	w.Byte(e.Kind)
	w.WriteU32(e.Idx)
}

// codeEntry writes one size-prefixed function body.
func (m *Module) codeEntry(w *Writer, i int) {
	fn := m.Code[i]
	body := NewWriter()
	body.WriteU32(uint32(len(fn.Locals)))
	for _, l := range fn.Locals {
		body.WriteU32(l.Count)
		body.Byte(byte(l.ValType))
	}
	body.WriteBytes(fn.Code)

	w.WriteU32(uint32(body.Len()))
	w.WriteBytes(body.Bytes())
}

// dataEntry writes an active segment for memory 0 (flag 0).
func (m *Module) dataEntry(w *Writer, i int) {
	d := m.Data[i]
	w.WriteU32(0)
	w.WriteBytes(ConstExpr(ValI32, int64(int32(d.Offset))))
	w.WriteU32(uint32(len(d.Init)))
	w.WriteBytes(d.Init)
}

func resultTypes(w *Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

// limits writes a memory type: flag 0 is min only, flag 1 adds max.
func limits(w *Writer, m MemoryType) {
	if m.Max == nil {
		w.Byte(0)
		w.WriteU32(m.Min)
		return
	}
	w.Byte(1)
	w.WriteU32(m.Min)
	w.WriteU32(*m.Max)
}

func globalType(w *Writer, g GlobalType) {
	w.Byte(byte(g.ValType))
	var mut byte
	if g.Mutable {
		mut = 1
	}
	w.Byte(mut)
}
