package sat

import (
	"fmt"
	"io"
	"strings"
)

// ToOPB renders the compiled pseudo-boolean instance in OPB text format
func (enc *encoding) ToOPB() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "* #variable= %d #constraint= %d\n", enc.nbVars, len(enc.constraints))

	if enc.objective != nil {
		builder.WriteString("min:")
		for i, lit := range enc.objective.lits {
			fmt.Fprintf(&builder, " %+d %s", enc.objective.weights[i], opbLiteral(lit))
		}
		builder.WriteString(" ;\n")
	}

	for _, constraint := range enc.constraints {
		for i, lit := range constraint.lits {
			fmt.Fprintf(&builder, "%+d %s ", constraint.weights[i], opbLiteral(lit))
		}
		fmt.Fprintf(&builder, ">= %d ;\n", constraint.atLeast)
	}
	return builder.String()
}

func opbLiteral(lit int) string {
	if lit < 0 {
		return fmt.Sprintf("~x%d", -lit)
	}
	return fmt.Sprintf("x%d", lit)
}

// WriteOPB writes the pseudo-boolean instance behind a gophersat handle
func WriteOPB(w io.Writer, handle Handle) error {
	h, ok := handle.(*gophersatHandle)
	if !ok {
		return ErrForeignHandle
	}
	_, err := io.WriteString(w, h.encoding.ToOPB())
	return err
}
