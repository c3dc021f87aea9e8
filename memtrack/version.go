package memtrack

// Version is the memtrack release version.
const Version = "0.1.0"
