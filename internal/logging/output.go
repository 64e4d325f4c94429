package logging

import "os"

// stderr is a variable so tests can capture output.
var stderr = os.Stderr
