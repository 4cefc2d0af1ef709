package classfile

// Opcodes for the subset of the JVM instruction set the engine inspects or
// synthesizes. Values follow the JVM specification.
const (
	OpNop             byte = 0x00
	OpAConstNull      byte = 0x01
	OpIConstM1        byte = 0x02
	OpIConst0         byte = 0x03
	OpIConst1         byte = 0x04
	OpIConst2         byte = 0x05
	OpIConst3         byte = 0x06
	OpIConst4         byte = 0x07
	OpIConst5         byte = 0x08
	OpLConst0         byte = 0x09
	OpLConst1         byte = 0x0A
	OpFConst0         byte = 0x0B
	OpFConst1         byte = 0x0C
	OpFConst2         byte = 0x0D
	OpDConst0         byte = 0x0E
	OpDConst1         byte = 0x0F
	OpBIPush          byte = 0x10
	OpSIPush          byte = 0x11
	OpLdc             byte = 0x12
	OpILoad           byte = 0x15
	OpLLoad           byte = 0x16
	OpFLoad           byte = 0x17
	OpDLoad           byte = 0x18
	OpALoad           byte = 0x19
	OpIStore          byte = 0x36
	OpLStore          byte = 0x37
	OpFStore          byte = 0x38
	OpDStore          byte = 0x39
	OpAStore          byte = 0x3A
	OpPop             byte = 0x57
	OpPop2            byte = 0x58
	OpDup             byte = 0x59
	OpIInc            byte = 0x84
	OpIfEq            byte = 0x99
	OpIfNe            byte = 0x9A
	OpGoto            byte = 0xA7
	OpIReturn         byte = 0xAC
	OpLReturn         byte = 0xAD
	OpFReturn         byte = 0xAE
	OpDReturn         byte = 0xAF
	OpAReturn         byte = 0xB0
	OpReturn          byte = 0xB1
	OpGetStatic       byte = 0xB2
	OpPutStatic       byte = 0xB3
	OpGetField        byte = 0xB4
	OpPutField        byte = 0xB5
	OpInvokeVirtual   byte = 0xB6
	OpInvokeSpecial   byte = 0xB7
	OpInvokeStatic    byte = 0xB8
	OpInvokeInterface byte = 0xB9
	OpInvokeDynamic   byte = 0xBA
	OpNew             byte = 0xBB
	OpANewArray       byte = 0xBD
	OpAThrow          byte = 0xBF
	OpCheckCast       byte = 0xC0
	OpInstanceOf      byte = 0xC1
	OpIfNull          byte = 0xC6
	OpIfNonNull       byte = 0xC7
)

// Method handle reference kinds, as used in bootstrap constants.
const (
	HandleGetField         byte = 1
	HandleGetStatic        byte = 2
	HandlePutField         byte = 3
	HandlePutStatic        byte = 4
	HandleInvokeVirtual    byte = 5
	HandleInvokeStatic     byte = 6
	HandleInvokeSpecial    byte = 7
	HandleNewInvokeSpecial byte = 8
	HandleInvokeInterface  byte = 9
)

// Access flags for classes and methods.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccInterface uint16 = 0x0200
	AccAbstract  uint16 = 0x0400
	AccSynthetic uint16 = 0x1000
)
