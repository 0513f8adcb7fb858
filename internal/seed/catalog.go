package seed

// Item is one sample catalog product.
type Item struct {
	Name        string
	Description string
	Price       string
	Category    string
	Image       string
	Stock       int
	Rating      string
	NumReviews  int
}

// Catalog is the sample product set loaded into development databases.
var Catalog = []Item{
	{"Wireless Bluetooth Headphones", "High-quality wireless headphones with noise cancellation and 30-hour battery life. Perfect for music lovers and professionals.", "99.99", "electronics", "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500", 50, "4.5", 120},
	{"Smart Watch Pro", "Feature-rich smartwatch with heart rate monitor, GPS, and water resistance. Track your fitness goals with style.", "249.99", "electronics", "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500", 30, "4.7", 85},
	{"Leather Jacket", "Classic genuine leather jacket with modern design. Durable and stylish for any occasion.", "199.99", "clothing", "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=500", 25, "4.3", 45},
	{"Running Shoes", "Comfortable running shoes with advanced cushioning technology. Perfect for daily runs and workouts.", "129.99", "footwear", "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=500", 60, "4.6", 200},
	{"Laptop Backpack", "Spacious laptop backpack with multiple compartments. Water-resistant and ergonomic design.", "79.99", "accessories", "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=500", 40, "4.4", 95},
	{"Coffee Maker", "Programmable coffee maker with thermal carafe. Brew perfect coffee every morning.", "89.99", "home", "https://images.unsplash.com/photo-1517668808823-f8c0e0e0e0e0?w=500", 35, "4.5", 150},
	{"Yoga Mat", "Premium non-slip yoga mat with carrying strap. Perfect for yoga, pilates, and workouts.", "39.99", "sports", "https://images.unsplash.com/photo-1601925260368-ae2f83cf8b7f?w=500", 70, "4.2", 180},
	{"Wireless Mouse", "Ergonomic wireless mouse with precision tracking. Long battery life and comfortable design.", "29.99", "electronics", "https://images.unsplash.com/photo-1527814050087-3793815479db?w=500", 100, "4.3", 250},
	{"Cotton T-Shirt", "100% organic cotton t-shirt. Soft, comfortable, and eco-friendly. Available in multiple colors.", "24.99", "clothing", "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500", 150, "4.1", 300},
	{"Desk Lamp", "LED desk lamp with adjustable brightness and color temperature. Eye-friendly lighting for work.", "49.99", "home", "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?w=500", 45, "4.6", 110},
	{"Water Bottle", "Stainless steel insulated water bottle. Keeps drinks cold for 24 hours or hot for 12 hours.", "34.99", "accessories", "https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=500", 80, "4.4", 175},
	{"Gaming Keyboard", "Mechanical gaming keyboard with RGB backlighting. Responsive keys for competitive gaming.", "149.99", "electronics", "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500", 20, "4.8", 90},
}
