package vm

import (
	"minic/pkg/compiler"
	"minic/pkg/value"
)

// Reset loads bytecode into the VM for reuse, keeping the allocated stack.
// The trace function stays installed.
func (vm *VM) Reset(bytecode *compiler.Bytecode) {
	vm.constants = bytecode.Constants
	vm.instructions = bytecode.Instructions
	vm.positions = bytecode.Positions

	// Clear stale slots so old values are not kept alive
	for i := 0; i < vm.sp; i++ {
		vm.stack[i] = value.Value{}
	}
	vm.sp = 0
	vm.ip = 0
}
