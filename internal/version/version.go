package version

// Version is the release version, also stamped into every batch header.
const Version = "2.0.0"
