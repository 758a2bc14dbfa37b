package config

// ImportNameSep joins a module name and an export name when a bare
// `use mod` brings exports in under qualified names ("mod name").
const ImportNameSep = " "

// ItVarName is the implicit block parameter bound per element when a block
// declares no parameters of its own.
const ItVarName = "it"

// DefaultWorkers is the worker count parallel evaluation falls back to;
// zero means one worker per CPU.
const DefaultWorkers = 0
