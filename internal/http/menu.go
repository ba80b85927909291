package http

// Menu says which navigation entries a view shows. It is built per
// request and handed to the template with the page data.
type Menu struct {
	Home     bool
	Register bool
	Login    bool
	Profile  bool
	Products bool
	Cart     bool
	Logout   bool
}

func homeMenu() Menu {
	return Menu{Home: true, Profile: true, Products: true, Cart: true, Logout: true}
}

func loginMenu() Menu {
	return Menu{Home: true, Register: true}
}

func registerMenu() Menu {
	return Menu{Home: true, Login: true}
}

func profileMenu() Menu {
	return Menu{Home: true, Products: true, Cart: true, Logout: true}
}

func productsMenu() Menu {
	return Menu{Home: true, Profile: true, Cart: true, Logout: true}
}

func cartMenu() Menu {
	return Menu{Home: true, Profile: true, Products: true, Logout: true}
}
