package translator_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"govm/pkg/asm"
	"govm/pkg/codegen"
	"govm/pkg/cpu"
	"govm/pkg/translator"
	"govm/pkg/vm"
)

const sysInit = `
function Sys.init 0
push constant 42
return
`

var _ = Describe("Session", func() {
	var (
		mockCtrl *gomock.Controller
		source   *MockSource
		sink     *MockSink
		session  *translator.Session
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		source = NewMockSource(mockCtrl)
		sink = NewMockSink(mockCtrl)
		session = translator.NewSession(translator.Options{Bootstrap: true})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should translate units in sorted order behind one bootstrap", func() {
		source.EXPECT().List().Return([]string{"Sys.vm", "Main.vm", "notes.txt"})
		gomock.InOrder(
			source.EXPECT().Read("Main.vm").Return([]byte("function Main.main 0\npush static 1\nreturn"), nil),
			source.EXPECT().Read("Sys.vm").Return([]byte(sysInit), nil),
		)

		var written []byte
		sink.EXPECT().
			Write("Prog.asm", gomock.Any()).
			DoAndReturn(func(_ string, data []byte) error {
				written = data
				return nil
			})

		res, err := session.TranslateTo(source, sink, "Prog.asm")

		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(Equal(res.Text))
		Expect(res.Units).To(HaveLen(2))
		Expect(res.Units[0].Module).To(Equal("Main"))
		Expect(res.Units[1].Module).To(Equal("Sys"))

		text := string(res.Text)
		Expect(strings.Count(text, "(Sys.init$0)")).To(Equal(1))
		Expect(text).To(HavePrefix("    @256\n"))
		Expect(strings.Index(text, "(Main.main)")).To(BeNumerically("<", strings.Index(text, "(Sys.init)")))
		Expect(text).To(ContainSubstring("@Main.1"))
	})

	It("should not write anything when a unit fails to parse", func() {
		source.EXPECT().List().Return([]string{"Bad.vm"})
		source.EXPECT().Read("Bad.vm").Return([]byte("push constant 1\npush constant"), nil)

		res, err := session.TranslateTo(source, sink, "Bad.asm")

		Expect(res).To(BeNil())
		Expect(errors.Is(err, vm.ErrMissingOperand)).To(BeTrue())

		var pe *vm.ParseError
		Expect(errors.As(err, &pe)).To(BeTrue())
		Expect(pe.Unit).To(Equal("Bad.vm"))
		Expect(pe.Line).To(Equal(2))
	})

	It("should stop at the first failing unit", func() {
		source.EXPECT().List().Return([]string{"A.vm", "B.vm"})
		source.EXPECT().Read("A.vm").Return([]byte("pop constant 0"), nil)

		_, err := session.TranslateTo(source, sink, "Out.asm")

		Expect(errors.Is(err, codegen.ErrInvalidPop)).To(BeTrue())
		var te *codegen.TranslationError
		Expect(errors.As(err, &te)).To(BeTrue())
		Expect(te.Module).To(Equal("A"))
	})

	It("should report read errors", func() {
		source.EXPECT().List().Return([]string{"A.vm"})
		source.EXPECT().Read("A.vm").Return(nil, errors.New("disk on fire"))

		_, err := session.Translate(source)

		Expect(err).To(MatchError(ContainSubstring("read A.vm: disk on fire")))
	})

	It("should fail without any VM unit", func() {
		source.EXPECT().List().Return([]string{"README.md"})

		_, err := session.Translate(source)

		Expect(err).To(MatchError(translator.ErrNoUnits))
	})

	It("should wrap sink errors", func() {
		source.EXPECT().List().Return([]string{"Sys.vm"})
		source.EXPECT().Read("Sys.vm").Return([]byte(sysInit), nil)
		sink.EXPECT().Write("Sys.asm", gomock.Any()).Return(errors.New("read-only"))

		_, err := session.TranslateTo(source, sink, "Sys.asm")

		Expect(err).To(MatchError(ContainSubstring("write Sys.asm: read-only")))
	})
})

var _ = Describe("Program translation", func() {
	It("should give every call site its own return label across units", func() {
		session := translator.NewSession(translator.Options{})
		res, err := session.Translate(translator.Units{
			"A.vm": "function A.f 0\ncall Math.abs 1\ncall Math.abs 1\nreturn",
			"B.vm": "function B.g 0\ncall Math.abs 1\ncall A.f 0\nreturn",
		})
		Expect(err).NotTo(HaveOccurred())

		text := string(res.Text)
		for _, label := range []string{"(Math.abs$1)", "(Math.abs$2)", "(Math.abs$3)", "(A.f$1)"} {
			Expect(strings.Count(text, label)).To(Equal(1), label)
		}
		Expect(session.Ledger().Count("Math.abs")).To(Equal(3))
		Expect(text).NotTo(ContainSubstring("BOOTSTRAP"))
	})

	It("should keep return labels apart from user labels of the callee", func() {
		session := translator.NewSession(translator.Options{Bootstrap: true})
		res, err := session.Translate(translator.Units{
			"Sys.vm": "function Sys.init 0\ncall Foo 0\nreturn\nfunction Foo 0\nlabel ret.1\npush constant 1\nreturn",
		})
		Expect(err).NotTo(HaveOccurred())

		text := string(res.Text)
		Expect(strings.Count(text, "(Foo$1)")).To(Equal(1))
		Expect(strings.Count(text, "(Foo$ret.1)")).To(Equal(1))

		prog, _, err := asm.Assemble(text)
		Expect(err).NotTo(HaveOccurred())

		c := cpu.NewCPU()
		Expect(c.Load(prog)).To(Succeed())
		Expect(c.RunUntilDone()).To(Succeed())
		Expect(c.RAM[256]).To(BeEquivalentTo(1))
	})

	It("should reject offsets an A-instruction cannot carry", func() {
		session := translator.NewSession(translator.Options{})
		_, err := session.Translate(translator.Units{"M.vm": "push local 40000"})
		Expect(errors.Is(err, vm.ErrIndexOutOfRange)).To(BeTrue())

		_, err = session.Translate(translator.Units{"M.vm": "call F 40000"})
		Expect(errors.Is(err, vm.ErrIndexOutOfRange)).To(BeTrue())

		res, err := session.Translate(translator.Units{"M.vm": "push local 32767\ncall F 32767"})
		Expect(err).NotTo(HaveOccurred())
		_, _, err = asm.Assemble(string(res.Text))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should emit source comments on request", func() {
		session := translator.NewSession(translator.Options{Comments: true})
		res, err := session.Translate(translator.Units{"M.vm": "push constant 7"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(res.Text)).To(HavePrefix("// push constant 7\n"))
	})

	It("should run Sys.init from the bootstrap", func() {
		session := translator.NewSession(translator.Options{Bootstrap: true})
		res, err := session.Translate(translator.Units{"Sys.vm": sysInit})
		Expect(err).NotTo(HaveOccurred())

		prog, _, err := asm.Assemble(string(res.Text))
		Expect(err).NotTo(HaveOccurred())

		c := cpu.NewCPU()
		Expect(c.Load(prog)).To(Succeed())
		Expect(c.RunUntilDone()).To(Succeed())
		Expect(c.Halted).To(BeTrue())
		Expect(c.SP()).To(BeEquivalentTo(257))
		Expect(c.RAM[256]).To(BeEquivalentTo(42))
	})

	It("should log one record per unit", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		session := translator.NewSession(translator.Options{Logger: logger})

		_, err := session.Translate(translator.Units{"A.vm": "eq\nlt", "B.vm": "add"})
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(ContainSubstring(`"unit":"A.vm"`))
		Expect(lines[0]).To(ContainSubstring(`"comparisons":2`))
		Expect(lines[1]).To(ContainSubstring(`"unit":"B.vm"`))
	})
})

var _ = Describe("ModuleName", func() {
	It("should strip directory and extension", func() {
		Expect(translator.ModuleName("Main.vm")).To(Equal("Main"))
		Expect(translator.ModuleName("dir/Sys.VM")).To(Equal("Sys"))
		Expect(translator.ModuleName("Plain")).To(Equal("Plain"))
	})
})
