// Fennec CLI - inspection tooling for compiled function chunks
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/fennec-lang/fennec/cache"
	"github.com/fennec-lang/fennec/image"
	"github.com/fennec-lang/fennec/manifest"
	"github.com/fennec-lang/fennec/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	manifestDir := flag.String("manifest", ".", "Directory containing fennec.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fen [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  dis <chunk>       Disassemble a compiled function chunk\n")
		fmt.Fprintf(os.Stderr, "  segments <chunk>  Extract and list native segments\n")
		fmt.Fprintf(os.Stderr, "  hash <chunk>      Print a chunk's content hash\n")
		fmt.Fprintf(os.Stderr, "  cache-put <chunk> Store a chunk in the configured cache\n")
		fmt.Fprintf(os.Stderr, "  cache-ls          List cached chunk hashes\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := manifest.Load(*manifestDir)
	if err != nil {
		m = manifest.Default()
	}
	vm.Diagnostics = m.VM.Diagnostics

	switch args[0] {
	case "dis":
		err = runDis(args[1:])
	case "segments":
		err = runSegments(m, args[1:])
	case "hash":
		err = runHash(args[1:])
	case "cache-put":
		err = runCachePut(m, args[1:])
	case "cache-ls":
		err = runCacheLs(m)
	default:
		fmt.Fprintf(os.Stderr, "fen: unknown command %q\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fen: %v\n", err)
		os.Exit(1)
	}
}

func loadChunk(path string) (*image.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return image.UnmarshalChunk(data)
}

func runDis(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("dis: expected one chunk file")
	}
	c, err := loadChunk(args[0])
	if err != nil {
		return err
	}
	fn, err := c.Function()
	if err != nil {
		return err
	}
	fmt.Printf("function %s (%s), %d words\n", fn.Name, fn.ScriptPath, len(fn.Code))
	fmt.Println(vm.Disassemble(fn.Code))
	return nil
}

func runSegments(m *manifest.Manifest, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("segments: expected one chunk file")
	}
	c, err := loadChunk(args[0])
	if err != nil {
		return err
	}
	fn, err := c.Function()
	if err != nil {
		return err
	}
	fn.Tables = inspectionTables(fn)
	fn.MinSegmentSteps = m.VM.MinSegmentSteps
	fn.PrepareSegments()

	segs := fn.Segments()
	fmt.Printf("function %s: %d native segment(s)\n", fn.Name, len(segs))
	for i, seg := range segs {
		fmt.Printf("  [%d] ip %04d..%04d  %d steps\n", i, seg.StartIP, seg.EndIP, len(seg.Steps))
		for _, step := range seg.Steps {
			fmt.Printf("        %s\n", step.Kind)
		}
	}
	return nil
}

func runHash(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("hash: expected one chunk file")
	}
	c, err := loadChunk(args[0])
	if err != nil {
		return err
	}
	h, err := image.ChunkHash(c)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(h[:]))
	return nil
}

func runCachePut(m *manifest.Manifest, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cache-put: expected one chunk file")
	}
	path := m.CachePath()
	if path == "" {
		return fmt.Errorf("no cache path configured in fennec.toml")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	c, err := image.UnmarshalChunk(data)
	if err != nil {
		return err
	}
	h, err := image.ChunkHash(c)
	if err != nil {
		return err
	}
	store, err := cache.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Put(h, data); err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(h[:]))
	return nil
}

func runCacheLs(m *manifest.Manifest) error {
	path := m.CachePath()
	if path == "" {
		return fmt.Errorf("no cache path configured in fennec.toml")
	}
	store, err := cache.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	hashes, err := store.Hashes()
	if err != nil {
		return err
	}
	for _, h := range hashes {
		fmt.Println(h)
	}
	return nil
}

// inspectionTables builds no-op bound tables sized to cover every table
// index the stream references, so segment extraction can be previewed
// without a live interpreter.
func inspectionTables(fn *vm.Function) *vm.BoundTables {
	sizes := make(map[vm.Opcode]int)
	code := fn.Code
	ip := 0
	for ip < len(code) {
		op := vm.Opcode(code[ip])
		size := vm.InstrLen(code, ip)
		_, isAdjust := vm.AdjustTarget(op)
		if ip+size <= len(code) && vm.IsFastPath(op) && !isAdjust {
			// Table index is the last word of every validated instruction
			// outside the coercion block.
			idx := int(code[ip+size-1])
			if idx >= sizes[op] {
				sizes[op] = idx + 1
			}
		}
		ip += size
	}

	t := &vm.BoundTables{}
	noopOp := func(a, b *vm.Value, dst *vm.Value) {}
	for i := 0; i < sizes[vm.OpOperatorValidated]; i++ {
		t.Operators = append(t.Operators, noopOp)
	}
	for i := 0; i < sizes[vm.OpGetNamedValidated]; i++ {
		t.NamedGetters = append(t.NamedGetters, func(base *vm.Value, dst *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpSetNamedValidated]; i++ {
		t.NamedSetters = append(t.NamedSetters, func(dst *vm.Value, value *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpGetKeyedValidated]; i++ {
		t.KeyedGetters = append(t.KeyedGetters, func(base *vm.Value, key *vm.Value, dst *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpSetKeyedValidated]; i++ {
		t.KeyedSetters = append(t.KeyedSetters, func(dst *vm.Value, key *vm.Value, value *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpGetIndexedValidated]; i++ {
		t.IndexedGetters = append(t.IndexedGetters, func(base *vm.Value, index int64, dst *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpSetIndexedValidated]; i++ {
		t.IndexedSetters = append(t.IndexedSetters, func(dst *vm.Value, index int64, value *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpCallBuiltinTypeValidated]; i++ {
		t.BuiltinMethods = append(t.BuiltinMethods, func(base *vm.Value, args []*vm.Value, dst *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpCallUtilityValidated]; i++ {
		t.Utilities = append(t.Utilities, func(args []*vm.Value, dst *vm.Value) {})
	}
	for i := 0; i < sizes[vm.OpCallLangUtilityValidated]; i++ {
		t.LangUtilities = append(t.LangUtilities, func(args []*vm.Value, dst *vm.Value) {})
	}
	return t
}
