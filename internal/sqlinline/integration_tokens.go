package sqlinline

const QSelectIntegrationToken = `--sql f4c82b16-7a05-4d93-8e67-0b3f9d5a2c48
select token
from integration_tokens
where provider = $1;
`

const QUpsertIntegrationToken = `--sql 2a6e9d50-3f81-4b27-9c04-7e5a1f8b6d32
insert into integration_tokens (provider, token, properties, updated_at)
values ($1, $2, $3, now())
on conflict (provider) do update
set token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
