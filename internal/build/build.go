package build

// Version is overridden at link time with -ldflags "-X github.com/drummonds/resuminds/internal/build.Version=..."
var Version = "dev"
