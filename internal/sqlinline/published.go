package sqlinline

const QInsertPublishedIfAbsent = `--sql b2e7c043-9d16-4f58-a7b0-4c8e1f5d2a96
insert into published_videos (id, job_id, account_id, external_id, title, published_at)
values ($1, $2, $3, $4, $5, $6)
on conflict (account_id, external_id) do nothing;
`

const QExistsPublished = `--sql 8d0a5f37-4c29-4e61-b8f4-9a2d6e0c1b75
select exists (
    select 1 from published_videos
    where account_id = $1 and external_id = $2
);
`
