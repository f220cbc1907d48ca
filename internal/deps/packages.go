package deps

// aptPackages is the system package list for a Debian/Ubuntu build host,
// grouped by the component that needs it. Duplicates are removed at use.
var aptPackages = []string{
	// general
	"git",
	"rsync",
	"cmake",
	"make",
	"gcc",
	"g++",
	"python3.12-dev",
	"ruby",
	"ruby-dev",
	"rubygems",
	// osg
	"libpng-dev",
	"zlib1g-dev",
	"qtbase5-dev",
	// simbody
	"liblapack-dev",
	// scone
	"freeglut3-dev",
	"libxi-dev",
	"libxmu-dev",
	"liblapack-dev",
}

// AptPackages returns the package list with duplicates removed, keeping
// first-seen order.
func AptPackages() []string {
	seen := make(map[string]bool, len(aptPackages))
	out := make([]string, 0, len(aptPackages))
	for _, p := range aptPackages {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// cmakeFlags returns component-specific configure flags.
func cmakeFlags(l Layout, name, goos string) []string {
	switch name {
	case "osg":
		return []string{
			"-DOSG_USE_QT=ON",
			"-DDESIRED_QT_VERSION=5",
		}
	case "opensim":
		flags := []string{
			"-DSIMBODY_HOME=" + l.InstallDir("simbody"),
			"-DCMAKE_VERBOSE_MAKEFILE=FALSE",
		}
		return append(flags, opensimPlatformFlags(goos)...)
	default:
		return nil
	}
}

func opensimPlatformFlags(goos string) []string {
	if goos == "darwin" {
		return []string{
			"-DCMAKE_OSX_DEPLOYMENT_TARGET=10.10",
			"-DCMAKE_CXX_FLAGS=-stdlib=libc++",
			"-DCMAKE_MACOSX_RPATH=TRUE",
			"-DCMAKE_INSTALL_RPATH=@executable_path/../lib",
			"-DBUILD_TESTING=OFF",
			"-DBUILD_API_EXAMPLES=OFF",
			"-DBUILD_API_ONLY=OFF",
			"-DCMAKE_POLICY_VERSION_MINIMUM=3.5",
		}
	}
	return []string{
		"-DCMAKE_INSTALL_RPATH=$ORIGIN",
		"-DBUILD_TESTING=OFF",
		"-DBUILD_API_EXAMPLES=OFF",
		"-DBUILD_API_ONLY=OFF",
		"-DCMAKE_POLICY_VERSION_MINIMUM=3.5",
	}
}
