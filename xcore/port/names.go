package port

import "fmt"

// Name returns the conventional name of a port for diagnostics: the width and a
// letter for its index within that width, e.g. PORT_1A, PORT_4C, PORT_32A. Tracers
// use it; the simulation itself addresses ports only by resource number.
func Name(width Width, index int) string {
	if index >= 0 && index < 26 {
		return fmt.Sprintf("PORT_%d%c", width, 'A'+index)
	}
	return fmt.Sprintf("PORT_%d_%d", width, index)
}
