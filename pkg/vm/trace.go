package vm

import (
	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// TraceStep is one executed instruction with the registers after it ran.
type TraceStep struct {
	Step    int64
	IP      int
	Op      Opcode
	Operand uint8
	Regs    RegisterFile
	Out     int // -1 when nothing was emitted
}

// TraceFrame converts recorded steps into a DataFrame with the columns
// step, ip, op, operand, a, b, c, out. Rows without output have a nil out.
func TraceFrame(steps []TraceStep) *dataframe.DataFrame {
	var (
		stepVals    = make([]interface{}, 0, len(steps))
		ipVals      = make([]interface{}, 0, len(steps))
		opVals      = make([]interface{}, 0, len(steps))
		operandVals = make([]interface{}, 0, len(steps))
		aVals       = make([]interface{}, 0, len(steps))
		bVals       = make([]interface{}, 0, len(steps))
		cVals       = make([]interface{}, 0, len(steps))
		outVals     = make([]interface{}, 0, len(steps))
	)

	for _, s := range steps {
		stepVals = append(stepVals, s.Step)
		ipVals = append(ipVals, s.IP)
		opVals = append(opVals, s.Op.String())
		operandVals = append(operandVals, int64(s.Operand))
		aVals = append(aVals, s.Regs.A)
		bVals = append(bVals, s.Regs.B)
		cVals = append(cVals, s.Regs.C)
		if s.Out >= 0 {
			outVals = append(outVals, s.Out)
		} else {
			outVals = append(outVals, nil)
		}
	}

	// Registers are uint64 and may not fit an int64 series.
	return dataframe.NewDataFrame(
		dataframe.NewSeriesInt64("step", nil, stepVals...),
		dataframe.NewSeriesInt64("ip", nil, ipVals...),
		dataframe.NewSeriesString("op", nil, opVals...),
		dataframe.NewSeriesInt64("operand", nil, operandVals...),
		dataframe.NewSeriesGeneric("a", uint64(0), nil, aVals...),
		dataframe.NewSeriesGeneric("b", uint64(0), nil, bVals...),
		dataframe.NewSeriesGeneric("c", uint64(0), nil, cVals...),
		dataframe.NewSeriesInt64("out", nil, outVals...),
	)
}
