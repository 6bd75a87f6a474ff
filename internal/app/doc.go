// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: configure a logger, load
// the model, execute it, and print the resulting grid. It is decoupled from
// any specific entrypoint like a CLI.
package app
