package vm

import (
	"testing"

	"github.com/wudi/imp/compiler"
)

// loopProgram is a synthetic arithmetic loop (count down from a large
// start to zero via sub/br/jump) used to compare the interpreter
// against the pre-decoded dispatch path.
const loopProgram = `#call core::const out=local::i value=100000;
#call core::const out=local::one value=1;
#call core::const out=local::zero value=0;
#call core::label name=loop;
#call core::eq a=local::i b=local::zero out=local::done;
#call core::br cond=local::done then=end else=body;
#call core::label name=body;
#call core::sub a=local::i b=local::one out=local::i;
#call core::jump target=loop;
#call core::label name=end;
#call core::mov from=local::i to=return::value;
#call core::exit;`

func BenchmarkInterpreter(b *testing.B) {
	mod, err := compiler.CompileProgram(loopProgram, compiler.CompileOpts{ModuleName: "bench"})
	if err != nil {
		b.Fatal(err)
	}
	v := New(Config{NoJIT: true})
	for i := 0; i < b.N; i++ {
		if _, err := v.RunMain(mod); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPreDecodedDispatch(b *testing.B) {
	mod, err := compiler.CompileProgram(loopProgram, compiler.CompileOpts{ModuleName: "bench"})
	if err != nil {
		b.Fatal(err)
	}
	v := New(Config{NoJIT: false})
	for i := 0; i < b.N; i++ {
		if _, err := v.RunMain(mod); err != nil {
			b.Fatal(err)
		}
	}
}
