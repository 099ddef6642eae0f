package nn

import matnet "github.com/matnetgo/gomatnet"

//error constructors shared across the package; all failures carry the
//library's one taxonomy so callers can branch on matnet.IsKind.

func confErr(format string, args ...interface{}) error {
	return matnet.NewError(matnet.KindBadInput, format, args...)
}

func bundleErr(format string, args ...interface{}) error {
	return matnet.NewError(matnet.KindBadBundle, format, args...)
}

func speciesErr(format string, args ...interface{}) error {
	return matnet.NewError(matnet.KindUnknownSpecies, format, args...)
}

func stateErr(format string, args ...interface{}) error {
	return matnet.NewError(matnet.KindBadState, format, args...)
}

func finiteErr(format string, args ...interface{}) error {
	return matnet.NewError(matnet.KindNotFinite, format, args...)
}

func inputErr(format string, args ...interface{}) error {
	return matnet.NewError(matnet.KindBadInput, format, args...)
}
