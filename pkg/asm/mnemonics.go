package asm

import "riscv-emu/pkg/cpu"

// opForm classifies how a mnemonic's operands map onto the instruction
// word, mirroring the six formats the decoder recognizes.
type opForm int

const (
	formR opForm = iota
	formI
	formILoad
	formS
	formB
	formU
	formJ
	formSystem
)

// mnemoSpec is one row of the base-mnemonic table: enough information
// for the encoder to build the instruction word once operands and any
// symbol reference are resolved.
type mnemoSpec struct {
	form    opForm
	opcode  uint32
	funct3  uint32
	funct7  uint32
	isShift bool // slli/srli/srai and their -w forms: imm is a shift amount, not a full 12-bit value
}

// baseMnemonics is the encoder's lookup table, the inverse of the
// decoder's opcode/funct3/funct7 switch.
var baseMnemonics = map[string]mnemoSpec{
	// R-format arithmetic/logic
	"add":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b000, funct7: 0},
	"sub":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b000, funct7: 32},
	"sll":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b001, funct7: 0},
	"slt":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b010, funct7: 0},
	"sltu": {form: formR, opcode: cpu.OpArithLogR, funct3: 0b011, funct7: 0},
	"xor":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b100, funct7: 0},
	"srl":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b101, funct7: 0},
	"sra":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b101, funct7: 32},
	"or":   {form: formR, opcode: cpu.OpArithLogR, funct3: 0b110, funct7: 0},
	"and":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b111, funct7: 0},

	// R-format W-suffixed (RV64 only)
	"addw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b000, funct7: 0},
	"subw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b000, funct7: 32},
	"sllw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b001, funct7: 0},
	"srlw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b101, funct7: 0},
	"sraw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b101, funct7: 32},

	// M extension, R-format with funct7 == 1
	"mul":    {form: formR, opcode: cpu.OpArithLogR, funct3: 0b000, funct7: 1},
	"mulh":   {form: formR, opcode: cpu.OpArithLogR, funct3: 0b001, funct7: 1},
	"mulhsu": {form: formR, opcode: cpu.OpArithLogR, funct3: 0b010, funct7: 1},
	"mulhu":  {form: formR, opcode: cpu.OpArithLogR, funct3: 0b011, funct7: 1},
	"div":    {form: formR, opcode: cpu.OpArithLogR, funct3: 0b100, funct7: 1},
	"divu":   {form: formR, opcode: cpu.OpArithLogR, funct3: 0b101, funct7: 1},
	"rem":    {form: formR, opcode: cpu.OpArithLogR, funct3: 0b110, funct7: 1},
	"remu":   {form: formR, opcode: cpu.OpArithLogR, funct3: 0b111, funct7: 1},

	"mulw":  {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b000, funct7: 1},
	"divw":  {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b100, funct7: 1},
	"divuw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b101, funct7: 1},
	"remw":  {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b110, funct7: 1},
	"remuw": {form: formR, opcode: cpu.OpArithLogRW, funct3: 0b111, funct7: 1},

	// I-format arithmetic/logic
	"addi":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b000},
	"slti":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b010},
	"sltiu": {form: formI, opcode: cpu.OpArithLogI, funct3: 0b011},
	"xori":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b100},
	"ori":   {form: formI, opcode: cpu.OpArithLogI, funct3: 0b110},
	"andi":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b111},
	"slli":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b001, funct7: 0, isShift: true},
	"srli":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b101, funct7: 0, isShift: true},
	"srai":  {form: formI, opcode: cpu.OpArithLogI, funct3: 0b101, funct7: 32, isShift: true},

	"addiw": {form: formI, opcode: cpu.OpArithLogIW, funct3: 0b000},
	"slliw": {form: formI, opcode: cpu.OpArithLogIW, funct3: 0b001, funct7: 0, isShift: true},
	"srliw": {form: formI, opcode: cpu.OpArithLogIW, funct3: 0b101, funct7: 0, isShift: true},
	"sraiw": {form: formI, opcode: cpu.OpArithLogIW, funct3: 0b101, funct7: 32, isShift: true},

	// loads (I-format, separate opcode)
	"lb":  {form: formILoad, opcode: cpu.OpLoad, funct3: 0b000},
	"lh":  {form: formILoad, opcode: cpu.OpLoad, funct3: 0b001},
	"lw":  {form: formILoad, opcode: cpu.OpLoad, funct3: 0b010},
	"ld":  {form: formILoad, opcode: cpu.OpLoad, funct3: 0b011},
	"lbu": {form: formILoad, opcode: cpu.OpLoad, funct3: 0b100},
	"lhu": {form: formILoad, opcode: cpu.OpLoad, funct3: 0b101},
	"lwu": {form: formILoad, opcode: cpu.OpLoad, funct3: 0b110},

	// stores (S-format)
	"sb": {form: formS, opcode: cpu.OpStore, funct3: 0b000},
	"sh": {form: formS, opcode: cpu.OpStore, funct3: 0b001},
	"sw": {form: formS, opcode: cpu.OpStore, funct3: 0b010},
	"sd": {form: formS, opcode: cpu.OpStore, funct3: 0b011},

	// branches (B-format)
	"beq":  {form: formB, opcode: cpu.OpBranch, funct3: 0b000},
	"bne":  {form: formB, opcode: cpu.OpBranch, funct3: 0b001},
	"blt":  {form: formB, opcode: cpu.OpBranch, funct3: 0b100},
	"bge":  {form: formB, opcode: cpu.OpBranch, funct3: 0b101},
	"bltu": {form: formB, opcode: cpu.OpBranch, funct3: 0b110},
	"bgeu": {form: formB, opcode: cpu.OpBranch, funct3: 0b111},

	// U-format
	"lui":   {form: formU, opcode: cpu.OpLUI},
	"auipc": {form: formU, opcode: cpu.OpAUIPC},

	// J-format
	"jal": {form: formJ, opcode: cpu.OpJAL},

	// JALR is I-format but keeps its own opcode
	"jalr": {form: formI, opcode: cpu.OpJALR, funct3: 0},

	// system
	"ecall":  {form: formSystem, opcode: cpu.OpEnvironment, funct3: 0},
	"ebreak": {form: formSystem, opcode: cpu.OpEnvironment, funct3: 0},
}
