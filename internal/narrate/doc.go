// Package narrate produces the numbered voiceover sequence from extracted
// notes, dispatching synthesis across a bounded worker pool.
package narrate
