package job

// DefaultPipeMode uses a merged pipe, stdout and stderr can't be told apart.
const DefaultPipeMode = PipesMerged
