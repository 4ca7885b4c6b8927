package catalog

// Schema is the PostgreSQL layout PgStore reads from. It is applied by
// `storexport db init` and by the integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id                bigint PRIMARY KEY,
	parent_id         bigint NOT NULL DEFAULT 0,
	type              text   NOT NULL DEFAULT 'simple',
	status            text   NOT NULL DEFAULT 'publish',
	name              text   NOT NULL DEFAULT '',
	sku               text   NOT NULL DEFAULT '',
	permalink         text   NOT NULL DEFAULT '',
	short_description text   NOT NULL DEFAULT '',
	description       text   NOT NULL DEFAULT '',
	image_id          bigint NOT NULL DEFAULT 0,
	created_at        timestamptz NOT NULL DEFAULT now(),
	modified_at       timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS products_parent_idx ON products (parent_id);

CREATE TABLE IF NOT EXISTS record_meta (
	kind       text   NOT NULL,
	record_id  bigint NOT NULL,
	meta_key   text   NOT NULL,
	meta_value jsonb,
	PRIMARY KEY (kind, record_id, meta_key)
);

CREATE TABLE IF NOT EXISTS terms (
	id        bigint PRIMARY KEY,
	taxonomy  text   NOT NULL,
	name      text   NOT NULL,
	slug      text   NOT NULL DEFAULT '',
	parent_id bigint NOT NULL DEFAULT 0,
	url       text   NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS term_relationships (
	product_id bigint NOT NULL,
	term_id    bigint NOT NULL,
	PRIMARY KEY (product_id, term_id)
);

CREATE TABLE IF NOT EXISTS attachments (
	id  bigint PRIMARY KEY,
	url text NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            bigint PRIMARY KEY,
	login         text NOT NULL,
	email         text NOT NULL DEFAULT '',
	registered_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_roles (
	user_id bigint NOT NULL,
	role    text   NOT NULL,
	PRIMARY KEY (user_id, role)
);

CREATE TABLE IF NOT EXISTS orders (
	id                   bigint PRIMARY KEY,
	number               text NOT NULL DEFAULT '',
	status               text NOT NULL,
	created_at           timestamptz NOT NULL DEFAULT now(),
	customer_id          bigint NOT NULL DEFAULT 0,
	billing              jsonb NOT NULL DEFAULT '{}',
	shipping             jsonb NOT NULL DEFAULT '{}',
	payment_method       text NOT NULL DEFAULT '',
	payment_method_title text NOT NULL DEFAULT '',
	transaction_id       text NOT NULL DEFAULT '',
	total                numeric(14,2) NOT NULL DEFAULT 0,
	subtotal             numeric(14,2) NOT NULL DEFAULT 0,
	total_tax            numeric(14,2) NOT NULL DEFAULT 0,
	shipping_total       numeric(14,2) NOT NULL DEFAULT 0,
	shipping_tax         numeric(14,2) NOT NULL DEFAULT 0,
	discount_total       numeric(14,2) NOT NULL DEFAULT 0,
	currency             text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS order_items (
	order_id bigint  NOT NULL,
	position integer NOT NULL,
	name     text    NOT NULL,
	quantity integer NOT NULL DEFAULT 1,
	PRIMARY KEY (order_id, position)
);

CREATE TABLE IF NOT EXISTS order_notes (
	id         bigserial PRIMARY KEY,
	order_id   bigint NOT NULL,
	content    text   NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
`
