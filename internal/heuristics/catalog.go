package heuristics

// Defaults returns the built-in heuristic battery in registration order
func Defaults(env *Environment) []Heuristic {
	return []Heuristic{
		SuBinary(env),
		SuOnPath(env),
		MagiskBinary(env),
		BusyboxBinary(env),
		TestKeys(env),
		InsecureBuild(env),
		WritableSystem(env),
		RootPackages(env),
		RootModules(env),
		Debuggable(env),
		TracerAttached(env),
		SELinuxPermissive(env),
		Emulator(env),
	}
}
